package ports

// Navigator commits a navigation to a destination path. The request pipeline
// uses it to force the client to the login destination after session teardown.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(path string)

// Navigate calls f.
func (f NavigatorFunc) Navigate(path string) { f(path) }
