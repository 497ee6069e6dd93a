package entity

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// DocumentType discriminates the extracted record variants.
type DocumentType string

const (
	DocTypeTestReport   DocumentType = "medical_test_report"
	DocTypePrescription DocumentType = "prescription"
	DocTypeUnknown      DocumentType = "unknown"
)

// Valid reports whether t is one of the three allowed tags.
func (t DocumentType) Valid() bool {
	switch t {
	case DocTypeTestReport, DocTypePrescription, DocTypeUnknown:
		return true
	}
	return false
}

// AbnormalFlag marks a lab value relative to its reference range.
type AbnormalFlag string

const (
	FlagHigh   AbnormalFlag = "high"
	FlagLow    AbnormalFlag = "low"
	FlagNormal AbnormalFlag = "normal"
)

func (f AbnormalFlag) Valid() bool {
	switch f {
	case FlagHigh, FlagLow, FlagNormal:
		return true
	}
	return false
}

// ResultValue is a lab value that may be numeric or free text.
type ResultValue struct {
	Number *float64
	Text   *string
}

// IsNull reports whether no value was present in the source.
func (v ResultValue) IsNull() bool {
	return v.Number == nil && v.Text == nil
}

// String renders the value for display and chat context.
func (v ResultValue) String() string {
	switch {
	case v.Number != nil:
		return strconv.FormatFloat(*v.Number, 'f', -1, 64)
	case v.Text != nil:
		return *v.Text
	default:
		return ""
	}
}

func (v ResultValue) MarshalJSON() ([]byte, error) {
	switch {
	case v.Number != nil:
		return json.Marshal(*v.Number)
	case v.Text != nil:
		return json.Marshal(*v.Text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a number, a string, or anything else (treated as null).
func (v *ResultValue) UnmarshalJSON(data []byte) error {
	*v = ResultValue{}
	if isJSONNull(data) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		v.Number = &f
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v.Text = &s
		return nil
	}
	return nil
}

// TestResult is one row of a medical test report.
type TestResult struct {
	TestName       *string       `json:"test_name"`
	Value          ResultValue   `json:"value"`
	Unit           *string       `json:"unit"`
	ReferenceRange *string       `json:"reference_range"`
	AbnormalFlag   *AbnormalFlag `json:"abnormal_flag"`
}

// UnmarshalJSON decodes defensively: wrong-typed fields become null
// instead of failing the whole record.
func (t *TestResult) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		*t = TestResult{}
		return nil
	}
	t.TestName = strField(m, "test_name")
	t.Unit = strField(m, "unit")
	t.ReferenceRange = strField(m, "reference_range")
	if raw, ok := m["value"]; ok {
		_ = t.Value.UnmarshalJSON(raw)
	} else {
		t.Value = ResultValue{}
	}
	t.AbnormalFlag = nil
	if s := strField(m, "abnormal_flag"); s != nil {
		if f := AbnormalFlag(strings.ToLower(strings.TrimSpace(*s))); f.Valid() {
			t.AbnormalFlag = &f
		}
	}
	return nil
}

// Medication is one entry of a prescription.
type Medication struct {
	MedicineName *string `json:"medicine_name"`
	Dosage       *string `json:"dosage"`
	Frequency    *string `json:"frequency"`
	Duration     *string `json:"duration"`
	Instructions *string `json:"instructions"`
}

func (mm *Medication) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		*mm = Medication{}
		return nil
	}
	mm.MedicineName = strField(m, "medicine_name")
	mm.Dosage = strField(m, "dosage")
	mm.Frequency = strField(m, "frequency")
	mm.Duration = strField(m, "duration")
	mm.Instructions = strField(m, "instructions")
	return nil
}

// TestReport holds the fields of a medical test report document.
type TestReport struct {
	PatientName   *string      `json:"patient_name"`
	PatientAge    *string      `json:"patient_age"`
	PatientGender *string      `json:"patient_gender"`
	ReportDate    *string      `json:"report_date"`
	LabName       *string      `json:"lab_name"`
	DoctorName    *string      `json:"doctor_name"`
	TestResults   []TestResult `json:"test_results"`
}

// UnmarshalJSON decodes defensively, like TestResult: wrong-typed scalar
// fields become null rather than failing the whole record.
func (r *TestReport) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		*r = TestReport{}
		return nil
	}
	r.PatientName = strField(m, "patient_name")
	r.PatientAge = strField(m, "patient_age")
	r.PatientGender = strField(m, "patient_gender")
	r.ReportDate = strField(m, "report_date")
	r.LabName = strField(m, "lab_name")
	r.DoctorName = strField(m, "doctor_name")
	r.TestResults = nil
	if raw, ok := m["test_results"]; ok {
		var results []TestResult
		if err := json.Unmarshal(raw, &results); err == nil {
			r.TestResults = results
		}
	}
	return nil
}

// Prescription holds the fields of a prescription document.
type Prescription struct {
	PatientName  *string      `json:"patient_name"`
	Age          *string      `json:"age"`
	Date         *string      `json:"date"`
	DoctorName   *string      `json:"doctor_name"`
	HospitalName *string      `json:"hospital_name"`
	Medications  []Medication `json:"medications"`
}

func (p *Prescription) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		*p = Prescription{}
		return nil
	}
	p.PatientName = strField(m, "patient_name")
	p.Age = strField(m, "age")
	p.Date = strField(m, "date")
	p.DoctorName = strField(m, "doctor_name")
	p.HospitalName = strField(m, "hospital_name")
	p.Medications = nil
	if raw, ok := m["medications"]; ok {
		var meds []Medication
		if err := json.Unmarshal(raw, &meds); err == nil {
			p.Medications = meds
		}
	}
	return nil
}

// ExtractedRecord is the tagged union over the three document shapes.
// Exactly one variant pointer is set unless the tag is "unknown".
type ExtractedRecord struct {
	DocumentType DocumentType
	TestReport   *TestReport
	Prescription *Prescription
}

// UnknownRecord is the fallback for anything the parser cannot place.
func UnknownRecord() ExtractedRecord {
	return ExtractedRecord{DocumentType: DocTypeUnknown}
}

// MarshalJSON flattens the active variant alongside the tag, matching
// the wire shape the model is instructed to produce.
func (r ExtractedRecord) MarshalJSON() ([]byte, error) {
	switch r.DocumentType {
	case DocTypeTestReport:
		rep := r.TestReport
		if rep == nil {
			rep = &TestReport{}
		}
		if rep.TestResults == nil {
			rep.TestResults = []TestResult{}
		}
		return json.Marshal(struct {
			DocumentType DocumentType `json:"document_type"`
			*TestReport
		}{DocTypeTestReport, rep})
	case DocTypePrescription:
		p := r.Prescription
		if p == nil {
			p = &Prescription{}
		}
		if p.Medications == nil {
			p.Medications = []Medication{}
		}
		return json.Marshal(struct {
			DocumentType DocumentType `json:"document_type"`
			*Prescription
		}{DocTypePrescription, p})
	default:
		return json.Marshal(struct {
			DocumentType DocumentType `json:"document_type"`
		}{DocTypeUnknown})
	}
}

// UnmarshalJSON never fails: an unrecognized or missing tag, or a body
// that is not an object, decodes to the unknown record.
func (r *ExtractedRecord) UnmarshalJSON(data []byte) error {
	var head struct {
		DocumentType DocumentType `json:"document_type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		*r = UnknownRecord()
		return nil
	}
	switch head.DocumentType {
	case DocTypeTestReport:
		var rep TestReport
		if err := json.Unmarshal(data, &rep); err != nil {
			*r = UnknownRecord()
			return nil
		}
		if rep.TestResults == nil {
			rep.TestResults = []TestResult{}
		}
		*r = ExtractedRecord{DocumentType: DocTypeTestReport, TestReport: &rep}
	case DocTypePrescription:
		var p Prescription
		if err := json.Unmarshal(data, &p); err != nil {
			*r = UnknownRecord()
			return nil
		}
		if p.Medications == nil {
			p.Medications = []Medication{}
		}
		*r = ExtractedRecord{DocumentType: DocTypePrescription, Prescription: &p}
	default:
		*r = UnknownRecord()
	}
	return nil
}

// Normalize enforces the abnormal-flag invariant: a flag is only kept
// when both a value and an explicit reference range are present.
func (r *ExtractedRecord) Normalize() {
	if r.DocumentType != DocTypeTestReport || r.TestReport == nil {
		return
	}
	for i := range r.TestReport.TestResults {
		t := &r.TestReport.TestResults[i]
		if t.AbnormalFlag != nil && !t.AbnormalFlag.Valid() {
			t.AbnormalFlag = nil
		}
		if t.ReferenceRange == nil || t.Value.IsNull() {
			t.AbnormalFlag = nil
		}
	}
}

// isJSONNull reports whether data is the JSON literal null. encoding/json
// leaves the target untouched when decoding null into a string or float64,
// so callers must check before a typed decode.
func isJSONNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

func strField(m map[string]json.RawMessage, key string) *string {
	raw, ok := m[key]
	if !ok || isJSONNull(raw) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	// the model occasionally emits ages and dates as bare numbers
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		s := strconv.FormatFloat(f, 'f', -1, 64)
		return &s
	}
	return nil
}
