package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"scribe/internal/audioanalysis"
	"scribe/internal/config"
	"scribe/internal/jobs"
	"scribe/internal/logging"
	"scribe/internal/media"
	"scribe/internal/notifications"
	"scribe/internal/services"
	"scribe/internal/services/healthscribe"
	"scribe/internal/services/mediastore"
)

// Request describes one submission attempt.
type Request struct {
	// JobName is optional; when empty a session-<uuid> name is generated.
	JobName   string
	Source    media.Source
	Selection audioanalysis.Selection
}

// Submitter runs the submission pipeline: upload, create, poll.
type Submitter struct {
	cfg       *config.Config
	store     *jobs.Store
	uploader  mediastore.Uploader
	jobsvc    healthscribe.JobService
	sink      notifications.Sink
	push      notifications.Service
	navigator Navigator
	logger    *slog.Logger

	lock       *flock.Flock
	submitting atomic.Bool

	pollInterval    time.Duration
	maxPolls        int
	completionPause time.Duration
}

// Option customizes a Submitter, mainly for tests.
type Option func(*Submitter)

// WithUploader substitutes the upload coordinator.
func WithUploader(uploader mediastore.Uploader) Option {
	return func(s *Submitter) { s.uploader = uploader }
}

// WithJobService substitutes the transcription service client.
func WithJobService(svc healthscribe.JobService) Option {
	return func(s *Submitter) { s.jobsvc = svc }
}

// WithSink substitutes the progress notification sink.
func WithSink(sink notifications.Sink) Option {
	return func(s *Submitter) { s.sink = sink }
}

// WithPushService substitutes the push notification service.
func WithPushService(push notifications.Service) Option {
	return func(s *Submitter) { s.push = push }
}

// WithNavigator substitutes the completion navigator.
func WithNavigator(nav Navigator) Option {
	return func(s *Submitter) { s.navigator = nav }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Submitter) { s.logger = logger }
}

// WithPollInterval overrides the polling delay.
func WithPollInterval(interval time.Duration) Option {
	return func(s *Submitter) { s.pollInterval = interval }
}

// WithCompletionPause overrides the pause between the 100% notification and
// navigation.
func WithCompletionPause(pause time.Duration) Option {
	return func(s *Submitter) { s.completionPause = pause }
}

// NewSubmitter wires a Submitter from configuration. Transport clients
// default to the real HTTP implementations unless options substitute them.
func NewSubmitter(cfg *config.Config, store *jobs.Store, opts ...Option) (*Submitter, error) {
	s := &Submitter{
		cfg:             cfg,
		store:           store,
		navigator:       NopNavigator(),
		logger:          logging.NewNop(),
		lock:            flock.New(cfg.LockPath()),
		pollInterval:    time.Duration(cfg.Workflow.PollInterval) * time.Second,
		maxPolls:        cfg.Workflow.MaxPolls,
		completionPause: time.Duration(cfg.Workflow.CompletionPauseMS) * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.sink == nil {
		s.sink = notifications.NewHub()
	}
	if s.push == nil {
		s.push = notifications.NewService(cfg)
	}
	if s.uploader == nil {
		client, err := mediastore.New(
			cfg.Storage.Endpoint,
			cfg.Storage.Token,
			mediastore.WithPartSize(int64(cfg.Storage.PartSizeMiB)*1024*1024),
			mediastore.WithTimeout(time.Duration(cfg.Storage.RequestTimeout)*time.Second),
		)
		if err != nil {
			return nil, fmt.Errorf("build storage client: %w", err)
		}
		s.uploader = client
	}
	if s.jobsvc == nil {
		client, err := healthscribe.New(
			cfg.Transcribe.Endpoint,
			cfg.Transcribe.Token,
			healthscribe.WithTimeout(time.Duration(cfg.Transcribe.RequestTimeout)*time.Second),
		)
		if err != nil {
			return nil, fmt.Errorf("build transcribe client: %w", err)
		}
		s.jobsvc = client
	}
	return s, nil
}

// Run executes one submission end to end and returns the terminal ledger
// record. Validation failures return before any network call and post no
// notification; later failures post one terminal error notification and are
// reflected on the record.
func (s *Submitter) Run(ctx context.Context, req Request) (*jobs.Record, error) {
	if req.Source.IsNone() {
		return nil, services.Wrap(services.ErrValidation, "workflow", "submit",
			"no audio source attached", nil)
	}
	if err := req.Selection.Validate(); err != nil {
		return nil, err
	}

	jobName := strings.TrimSpace(req.JobName)
	if jobName == "" {
		jobName = "session-" + uuid.NewString()
	}
	if err := audioanalysis.ValidateJobName(jobName); err != nil {
		return nil, err
	}

	if !s.submitting.CompareAndSwap(false, true) {
		return nil, services.Wrap(services.ErrValidation, "workflow", "submit",
			"a submission is already in progress", nil)
	}
	defer s.submitting.Store(false)

	locked, err := s.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire submission lock: %w", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrValidation, "workflow", "submit",
			"a submission is already in progress", nil)
	}
	defer func() { _ = s.lock.Unlock() }()

	rec, err := s.store.NewSubmission(ctx, jobs.Record{
		JobName:      jobName,
		SourceName:   req.Source.Name(),
		SourcePath:   req.Source.Path(),
		SourceKind:   string(req.Source.Kind()),
		SourceSize:   req.Source.Size(),
		Mode:         string(req.Selection.Mode),
		MaxSpeakers:  req.Selection.MaxSpeakers,
		Channel0Role: string(req.Selection.Channel0),
	})
	if err != nil {
		return nil, err
	}

	logger := s.logger.With(
		logging.String(logging.FieldJobName, jobName),
		logging.String("source", req.Source.Name()),
	)

	mediaURI, err := s.upload(ctx, logger, rec, req.Source)
	if err != nil {
		return s.fail(ctx, rec, req.Source.Name(), err)
	}

	out, err := s.create(ctx, logger, rec, req, mediaURI)
	if err != nil {
		return s.fail(ctx, rec, jobName, err)
	}

	if !out.Confirmed() {
		return s.unconfirmed(ctx, logger, rec, out)
	}

	if err := s.store.SetRemoteStatus(ctx, rec.ID, out.Job.Status.String()); err != nil {
		logger.Warn("record remote status", logging.Error(err))
	}
	if err := s.push.NotifyJobSubmitted(ctx, jobName); err != nil {
		logger.Warn("push submitted notification", logging.Error(err))
	}

	plan := planFor(req.Source.Kind())
	s.sink.Upsert(notifications.Notification{
		ID:          jobName,
		Value:       plan.Start,
		Type:        notifications.TypeInfo,
		Description: fmt.Sprintf("Transcription job submitted: %s", jobName),
	})

	if err := s.poll(ctx, logger, rec, plan); err != nil {
		return s.fail(ctx, rec, jobName, err)
	}
	return s.store.GetByID(ctx, rec.ID)
}

// Watch re-enters the polling loop for an existing record, resuming an
// interrupted submission. Completed records return immediately.
func (s *Submitter) Watch(ctx context.Context, jobName string) (*jobs.Record, error) {
	rec, err := s.store.GetByName(ctx, jobName)
	if err != nil {
		return nil, err
	}
	if rec.Status.Terminal() {
		return rec, nil
	}

	logger := s.logger.With(logging.String(logging.FieldJobName, rec.JobName))
	plan := planFor(media.Kind(rec.SourceKind))
	if err := s.poll(ctx, logger, rec, plan); err != nil {
		return s.fail(ctx, rec, rec.JobName, err)
	}
	return s.store.GetByID(ctx, rec.ID)
}

func (s *Submitter) upload(ctx context.Context, logger *slog.Logger, rec *jobs.Record, source media.Source) (string, error) {
	fileName := source.Name()
	key := fmt.Sprintf("uploads/%s/%s", uuid.NewString(), fileName)
	bucket := s.cfg.Storage.Bucket
	mediaURI := mediastore.ObjectURI(bucket, key)

	if err := s.store.SetUploadTarget(ctx, rec.ID, bucket, key, mediaURI); err != nil {
		return "", err
	}
	if err := s.store.UpdateProgress(ctx, rec.ID, jobs.StatusUploading, 0, "upload",
		fmt.Sprintf("Uploading %s", fileName)); err != nil {
		return "", err
	}

	body, err := source.Open()
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "workflow", "upload",
			"open audio source", err)
	}
	defer body.Close()

	logger.Info("uploading audio",
		logging.String(logging.FieldBucket, bucket),
		logging.String(logging.FieldKey, key),
		logging.Int64("size", source.Size()))

	err = s.uploader.Upload(ctx, mediastore.UploadInput{
		Bucket:      bucket,
		Key:         key,
		Body:        body,
		Size:        source.Size(),
		ContentType: source.ContentType(),
		Progress: func(loaded, part, total int64) {
			percent := UploadPercent(loaded, total)
			s.sink.Upsert(notifications.Notification{
				ID:          fileName,
				Value:       percent,
				Type:        notifications.TypeInfo,
				Description: fmt.Sprintf("Uploading %s", fileName),
			})
		},
	})
	if err != nil {
		return "", err
	}

	s.sink.Upsert(notifications.Notification{
		ID:          fileName,
		Value:       100,
		Type:        notifications.TypeSuccess,
		Description: fmt.Sprintf("Uploaded %s", fileName),
	})
	return mediaURI, nil
}

func (s *Submitter) create(ctx context.Context, logger *slog.Logger, rec *jobs.Record, req Request, mediaURI string) (healthscribe.StartJobOutput, error) {
	if err := s.store.UpdateProgress(ctx, rec.ID, jobs.StatusCreating, 0, "create",
		"Creating transcription job"); err != nil {
		return healthscribe.StartJobOutput{}, err
	}

	logger.Info("creating transcription job", logging.String("media_uri", mediaURI))

	return s.jobsvc.StartJob(ctx, healthscribe.StartJobInput{
		JobName:            rec.JobName,
		DataAccessRole:     s.cfg.Transcribe.DataAccessRole,
		OutputBucket:       s.cfg.Transcribe.OutputBucket,
		Media:              healthscribe.Media{MediaFileURI: mediaURI},
		Settings:           req.Selection.Settings(),
		ChannelDefinitions: req.Selection.ChannelDefinitions(),
	})
}

func (s *Submitter) poll(ctx context.Context, logger *slog.Logger, rec *jobs.Record, plan pollPlan) error {
	counter := plan.Start
	if err := s.store.UpdateProgress(ctx, rec.ID, jobs.StatusPolling, counter, "poll",
		"Waiting for transcription"); err != nil {
		return err
	}

	for iteration := 1; ; iteration++ {
		if s.maxPolls > 0 && iteration > s.maxPolls {
			return services.Wrap(services.ErrTimeout, "workflow", "poll",
				fmt.Sprintf("job %s not terminal after %d polls", rec.JobName, s.maxPolls), nil)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.pollInterval):
		}

		job, err := s.jobsvc.GetJob(ctx, rec.JobName)
		if err != nil {
			return err
		}
		if err := s.store.SetRemoteStatus(ctx, rec.ID, job.Status.String()); err != nil {
			logger.Warn("record remote status", logging.Error(err))
		}

		switch job.Status {
		case healthscribe.StatusCompleted:
			return s.complete(ctx, logger, rec)
		case healthscribe.StatusFailed:
			reason := strings.TrimSpace(job.FailureReason)
			if reason == "" {
				reason = "transcription failed"
			}
			return services.Wrap(services.ErrExternalService, "workflow", "poll",
				fmt.Sprintf("job %s failed: %s", rec.JobName, reason), nil)
		default:
			counter = plan.advance(counter)
			s.sink.Upsert(notifications.Notification{
				ID:          rec.JobName,
				Value:       counter,
				Type:        notifications.TypeInfo,
				Description: fmt.Sprintf("Transcription in progress (%s)", job.Status),
			})
			if err := s.store.UpdateProgress(ctx, rec.ID, jobs.StatusPolling, counter, "poll",
				fmt.Sprintf("Remote status %s", job.Status)); err != nil {
				return err
			}
		}
	}
}

func (s *Submitter) complete(ctx context.Context, logger *slog.Logger, rec *jobs.Record) error {
	conversationPath := "/conversation/" + rec.JobName

	s.sink.Upsert(notifications.Notification{
		ID:          rec.JobName,
		Value:       100,
		Type:        notifications.TypeSuccess,
		Description: fmt.Sprintf("Transcription complete: %s", rec.JobName),
	})

	// Hold the 100% state briefly so consumers can render it before the
	// view changes.
	if s.completionPause > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.completionPause):
		}
	}

	s.navigator.GoTo(conversationPath)

	if err := s.store.MarkCompleted(ctx, rec.ID, conversationPath); err != nil {
		return err
	}
	if err := s.push.NotifyJobCompleted(ctx, rec.JobName, conversationPath); err != nil {
		logger.Warn("push completed notification", logging.Error(err))
	}
	logger.Info("transcription complete", logging.String("conversation", conversationPath))
	return nil
}

func (s *Submitter) unconfirmed(ctx context.Context, logger *slog.Logger, rec *jobs.Record, out healthscribe.StartJobOutput) (*jobs.Record, error) {
	raw := strings.TrimSpace(string(out.Raw))
	s.sink.Upsert(notifications.Notification{
		ID:             rec.JobName,
		Value:          0,
		Type:           notifications.TypeInfo,
		Description:    fmt.Sprintf("Job %s was accepted but returned no recognizable status", rec.JobName),
		AdditionalInfo: raw,
	})

	if err := s.store.MarkUnconfirmed(ctx, rec.ID,
		"creation response carried no recognizable status"); err != nil {
		return nil, err
	}
	if err := s.push.NotifyJobUnconfirmed(ctx, rec.JobName); err != nil {
		logger.Warn("push unconfirmed notification", logging.Error(err))
	}
	logger.Warn("job unconfirmed", logging.String("raw_response", raw))
	return s.store.GetByID(ctx, rec.ID)
}

// fail posts the single terminal error notification, marks the record failed,
// and returns the original error.
func (s *Submitter) fail(ctx context.Context, rec *jobs.Record, entryID string, cause error) (*jobs.Record, error) {
	s.sink.Upsert(notifications.Notification{
		ID:          entryID,
		Value:       0,
		Type:        notifications.TypeError,
		Description: cause.Error(),
	})

	// Persist the failure even when the run's context is already gone.
	storeCtx := ctx
	if storeCtx.Err() != nil {
		var cancel context.CancelFunc
		storeCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if err := s.store.MarkFailed(storeCtx, rec.ID, cause.Error()); err != nil {
		s.logger.Warn("mark submission failed", logging.Error(err))
	}
	if err := s.push.NotifyJobFailed(storeCtx, rec.JobName, cause); err != nil {
		s.logger.Warn("push failure notification", logging.Error(err))
	}
	return nil, cause
}
