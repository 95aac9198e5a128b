package report

import (
	"encoding/json"
	"io"
)

// JSONLinesEmitter writes the output protocol as one JSON object per line:
// progress events tagged "progress", the terminal envelope tagged "result".
type JSONLinesEmitter struct {
	enc *json.Encoder
}

// NewJSONLinesEmitter creates an emitter writing to w.
func NewJSONLinesEmitter(w io.Writer) *JSONLinesEmitter {
	return &JSONLinesEmitter{enc: json.NewEncoder(w)}
}

type jsonlProgress struct {
	Event string `json:"event"`
	Progress
}

type jsonlResult struct {
	Event string `json:"event"`
	*Result
}

func (e *JSONLinesEmitter) Progress(p Progress) {
	// Progress is advisory; an encode failure must not disturb the job.
	_ = e.enc.Encode(jsonlProgress{Event: "progress", Progress: p})
}

func (e *JSONLinesEmitter) Result(r *Result) error {
	return e.enc.Encode(jsonlResult{Event: "result", Result: r})
}
