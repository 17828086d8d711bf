package healthscribe

import "encoding/json"

// Status is the remote job status enumeration. Values are fetched fresh on
// every poll and never mutated locally.
type Status string

const (
	StatusQueued     Status = "QUEUED"
	StatusSubmitted  Status = "SUBMITTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Terminal reports whether no further status transition can occur.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s Status) String() string { return string(s) }

// ParticipantRole identifies which party a channel carries in a two-channel
// recording.
type ParticipantRole string

const (
	RoleClinician ParticipantRole = "CLINICIAN"
	RolePatient   ParticipantRole = "PATIENT"
)

// Complement returns the opposite role. Channel role assignments are always
// complementary: one channel per role, never equal.
func (r ParticipantRole) Complement() ParticipantRole {
	if r == RoleClinician {
		return RolePatient
	}
	return RoleClinician
}

// Settings carries the audio-analysis parameters of a job. Exactly one of the
// two shapes is populated: speaker partitioning (ShowSpeakerLabels +
// MaxSpeakerLabels) or channel identification.
type Settings struct {
	ShowSpeakerLabels     bool `json:"ShowSpeakerLabels,omitempty"`
	MaxSpeakerLabels      int  `json:"MaxSpeakerLabels,omitempty"`
	ChannelIdentification bool `json:"ChannelIdentification,omitempty"`
}

// ChannelDefinition assigns a participant role to one audio channel.
type ChannelDefinition struct {
	ChannelID       int             `json:"ChannelId"`
	ParticipantRole ParticipantRole `json:"ParticipantRole"`
}

// Media points the service at the uploaded audio object.
type Media struct {
	MediaFileURI string `json:"MediaFileUri"`
}

// Job is the remote job resource as returned by the service.
type Job struct {
	Name          string `json:"MedicalScribeJobName"`
	Status        Status `json:"MedicalScribeJobStatus"`
	LanguageCode  string `json:"LanguageCode,omitempty"`
	FailureReason string `json:"FailureReason,omitempty"`
}

// StartJobInput describes a job-creation request.
type StartJobInput struct {
	JobName            string              `json:"MedicalScribeJobName"`
	DataAccessRole     string              `json:"DataAccessRoleArn"`
	OutputBucket       string              `json:"OutputBucketName"`
	Media              Media               `json:"Media"`
	Settings           Settings            `json:"Settings"`
	ChannelDefinitions []ChannelDefinition `json:"ChannelDefinitions,omitempty"`
}

// StartJobOutput carries the created job, when the response shape is
// recognizable, plus the raw body for diagnosis when it is not.
type StartJobOutput struct {
	Job *Job
	Raw json.RawMessage
}

// Confirmed reports whether the creation response carried a recognizable job
// status. An unconfirmed response is terminal but non-erroring.
func (o StartJobOutput) Confirmed() bool {
	return o.Job != nil && o.Job.Status != ""
}

type jobEnvelope struct {
	Job *Job `json:"MedicalScribeJob"`
}
