package asset

// SetRemoveFile swaps the function used to delete stored assets.
func SetRemoveFile(f func(string) error) (restore func()) {
	prev := removeFile
	removeFile = f
	return func() { removeFile = prev }
}
