package cli

// RunWithWriter is exported for testing
var RunWithWriter = run
