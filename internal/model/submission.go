package model

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrNotObject is returned by DecodeSubmission for a JSON null body.
var ErrNotObject = errors.New("submission body must be a JSON object")

// Submission is one saved run of the cost-deduction calculator.
type Submission struct {
	ProjectName     string
	State           string
	ContractValue   float64
	LaborScope      string
	Payroll         float64
	SubAmount       float64
	SubName         string
	SubContactName  string
	SubContactEmail string
	WCAmount        float64
	GLAmount        float64
	UmbrellaAmount  float64
	IncludeOP       bool
	OPAmount        float64
	TotalDeduction  float64
	SubmittedAt     time.Time
}

// DecodeSubmission parses a calculator payload. Absent fields and fields of
// the wrong type take their zero value; no other validation happens.
// SubmittedAt is left for the store to assign.
func DecodeSubmission(body []byte) (*Submission, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrNotObject
	}

	return &Submission{
		ProjectName:     stringField(raw, "projectName"),
		State:           stringField(raw, "state"),
		ContractValue:   numberField(raw, "contractValue"),
		LaborScope:      stringField(raw, "laborScope"),
		Payroll:         numberField(raw, "payroll"),
		SubAmount:       numberField(raw, "subAmount"),
		SubName:         stringField(raw, "subName"),
		SubContactName:  stringField(raw, "subContactName"),
		SubContactEmail: stringField(raw, "subContactEmail"),
		WCAmount:        numberField(raw, "wcAmount"),
		GLAmount:        numberField(raw, "glAmount"),
		UmbrellaAmount:  numberField(raw, "umbrellaAmount"),
		IncludeOP:       boolField(raw, "includeOP"),
		OPAmount:        numberField(raw, "opAmount"),
		TotalDeduction:  numberField(raw, "totalDeduction"),
	}, nil
}

func stringField(raw map[string]json.RawMessage, key string) string {
	var s string
	if v, ok := raw[key]; ok && json.Unmarshal(v, &s) == nil {
		return s
	}
	return ""
}

// numberField accepts JSON numbers and numeric strings (form inputs often
// arrive as strings).
func numberField(raw map[string]json.RawMessage, key string) float64 {
	v, ok := raw[key]
	if !ok {
		return 0
	}
	var f float64
	if json.Unmarshal(v, &f) == nil {
		return f
	}
	var s string
	if json.Unmarshal(v, &s) == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	}
	return 0
}

func boolField(raw map[string]json.RawMessage, key string) bool {
	v, ok := raw[key]
	if !ok {
		return false
	}
	var b bool
	if json.Unmarshal(v, &b) == nil {
		return b
	}
	var s string
	if json.Unmarshal(v, &s) == nil {
		b, _ = strconv.ParseBool(s)
		return b
	}
	return false
}
