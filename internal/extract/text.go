package extract

type textExtractor struct{}

// Extract decodes content to a string, falling back from UTF-8 to the platform
// default encoding before giving up with UnreadableSource.
func (textExtractor) Extract(content []byte, _ string) (Result, error) {
	text, err := decodeText(content)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: text, Metadata: map[string]interface{}{}}, nil
}
