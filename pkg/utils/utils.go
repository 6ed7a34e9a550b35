package utils

// Assert panics with message if condition is false
func Assert(condition bool, message string) {
	if !condition {
		panic(message)
	}
}
