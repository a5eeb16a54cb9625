package cryptocore

// PadOrTruncate returns a copy of data that is exactly n bytes: right-padded
// with zeros if shorter, truncated if longer. Used by the container before
// calling Encrypt so that every cipher always sees exactly bsize_net bytes
// of plaintext, per spec.md §4.3 "Inputs shorter than the expected net size
// are right-padded with zeros before encryption; longer inputs are
// truncated."
func PadOrTruncate(data []byte, n int) []byte {
	out := make([]byte, n)
	copy(out, data)
	return out
}
