package models

// DocumentResponse is the result of extracting one PDF, shaped for a UI or
// --json output.
type DocumentResponse struct {
	Success    bool   `json:"success" yaml:"success"`
	Text       string `json:"text,omitempty" yaml:"text,omitempty"`
	TotalPages int    `json:"totalPages,omitempty" yaml:"totalPages,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// BatchItem is the outcome for one file of a batch.
type BatchItem struct {
	FilePath string `json:"filePath" yaml:"filePath"`
	FileName string `json:"fileName" yaml:"fileName"`
	Text     string `json:"text,omitempty" yaml:"text,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
	Success  bool   `json:"success" yaml:"success"`
}

// BatchResponse is the result of a batch run. Success reports that the
// batch itself ran; per-file outcomes are in Results.
type BatchResponse struct {
	Success bool        `json:"success" yaml:"success"`
	Results []BatchItem `json:"results,omitempty" yaml:"results,omitempty"`
	Error   string      `json:"error,omitempty" yaml:"error,omitempty"`
}

// Tally counts succeeded and failed items.
func (r BatchResponse) Tally() (succeeded, failed int) {
	for _, item := range r.Results {
		if item.Success {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
