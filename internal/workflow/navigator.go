package workflow

// Navigator receives the conversation path of a completed job. The CLI prints
// it; other frontends may open it.
type Navigator interface {
	GoTo(path string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(path string)

// GoTo implements Navigator.
func (f NavigatorFunc) GoTo(path string) { f(path) }

// NopNavigator discards navigation requests.
func NopNavigator() Navigator {
	return NavigatorFunc(func(string) {})
}
