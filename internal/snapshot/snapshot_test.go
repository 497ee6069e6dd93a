package snapshot

import (
	"reflect"
	"testing"

	"github.com/mediread/vault/internal/entity"
)

func str(s string) *string { return &s }

func num(f float64) *float64 { return &f }

func flag(f entity.AbnormalFlag) *entity.AbnormalFlag { return &f }

func prescriptionDoc(fileName, date string, meds ...entity.Medication) entity.Document {
	return entity.Document{
		FileName:     fileName,
		DocumentDate: date,
		Extracted: entity.ExtractedRecord{
			DocumentType: entity.DocTypePrescription,
			Prescription: &entity.Prescription{Medications: meds},
		},
	}
}

func reportDoc(fileName, date string, results ...entity.TestResult) entity.Document {
	return entity.Document{
		FileName:     fileName,
		DocumentDate: date,
		Extracted: entity.ExtractedRecord{
			DocumentType: entity.DocTypeTestReport,
			TestReport:   &entity.TestReport{TestResults: results},
		},
	}
}

func TestBuildDedupesMedicationsNewestFirst(t *testing.T) {
	docs := []entity.Document{
		prescriptionDoc("rx-march.pdf", "2024-03-01",
			entity.Medication{MedicineName: str("Paracetamol"), Dosage: str("650mg")}),
		prescriptionDoc("rx-january.pdf", "2024-01-01",
			entity.Medication{MedicineName: str("paracetamol "), Dosage: str("500mg")},
			entity.Medication{MedicineName: str("Metformin"), Dosage: str("500mg")}),
	}

	snap := Build(docs)

	if len(snap.CurrentMedications) != 2 {
		t.Fatalf("expected 2 medications, got %d", len(snap.CurrentMedications))
	}
	first := snap.CurrentMedications[0]
	if *first.MedicineName != "Paracetamol" || *first.Dosage != "650mg" {
		t.Errorf("newest document must win the dedup, got %+v", first)
	}
	if first.SourceDoc != "rx-march.pdf" || first.SourceDate != "2024-03-01" {
		t.Errorf("wrong source attribution: %+v", first)
	}
	if *snap.CurrentMedications[1].MedicineName != "Metformin" {
		t.Errorf("expected Metformin second, got %+v", snap.CurrentMedications[1])
	}
}

func TestBuildLabsAndConditions(t *testing.T) {
	docs := []entity.Document{
		reportDoc("cbc-feb.pdf", "2024-02-10",
			entity.TestResult{
				TestName:       str("Hemoglobin"),
				Value:          entity.ResultValue{Number: num(11.2)},
				Unit:           str("g/dL"),
				ReferenceRange: str("13.0-17.0"),
				AbnormalFlag:   flag(entity.FlagLow),
			}),
		reportDoc("cbc-jan.pdf", "2024-01-10",
			entity.TestResult{
				TestName:       str("hemoglobin"),
				Value:          entity.ResultValue{Number: num(12.5)},
				ReferenceRange: str("13.0-17.0"),
				AbnormalFlag:   flag(entity.FlagLow),
			},
			entity.TestResult{
				TestName:     str("TSH"),
				Value:        entity.ResultValue{Number: num(2.1)},
				AbnormalFlag: flag(entity.FlagNormal),
			}),
	}

	snap := Build(docs)

	if len(snap.LatestLabs) != 2 {
		t.Fatalf("expected 2 labs, got %d", len(snap.LatestLabs))
	}
	hb := snap.LatestLabs[0]
	if *hb.Value.Number != 11.2 || hb.SourceDoc != "cbc-feb.pdf" {
		t.Errorf("newest hemoglobin must win, got %+v", hb)
	}
	if hb.SourceDate != "2024-02-10" {
		t.Errorf("wrong source date: %s", hb.SourceDate)
	}

	// same label from both documents appears once; normal flags never
	// become conditions
	if !reflect.DeepEqual(snap.ActiveConditions, []string{"Hemoglobin (low)", "hemoglobin (low)"}) {
		t.Errorf("unexpected conditions: %v", snap.ActiveConditions)
	}
}

func TestBuildSkipsNamelessAndMalformed(t *testing.T) {
	docs := []entity.Document{
		reportDoc("r.pdf", "2024-01-01", entity.TestResult{Value: entity.ResultValue{Number: num(1)}}),
		prescriptionDoc("p.pdf", "2024-01-02", entity.Medication{Dosage: str("10mg")}),
		{FileName: "u.pdf", Extracted: entity.UnknownRecord()},
		{
			FileName: "broken.pdf",
			Extracted: entity.ExtractedRecord{
				DocumentType: entity.DocTypeTestReport, // variant pointer missing
			},
		},
	}

	snap := Build(docs)

	if len(snap.LatestLabs) != 0 || len(snap.CurrentMedications) != 0 || len(snap.ActiveConditions) != 0 {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}
}

func TestBuildEmptyInput(t *testing.T) {
	snap := Build(nil)
	if snap.ActiveConditions == nil || snap.CurrentMedications == nil || snap.LatestLabs == nil {
		t.Error("snapshot slices must be initialized, not nil")
	}
}

func TestBuildIsPure(t *testing.T) {
	docs := []entity.Document{
		prescriptionDoc("rx.pdf", "2024-03-01", entity.Medication{MedicineName: str("Aspirin")}),
	}
	a := Build(docs)
	b := Build(docs)
	if !reflect.DeepEqual(a, b) {
		t.Error("expected identical snapshots for identical input")
	}
}

func TestBuildSourceDateFallsBackToUploadTime(t *testing.T) {
	doc := prescriptionDoc("rx.pdf", "", entity.Medication{MedicineName: str("Aspirin")})
	doc.UploadedAt = "2024-05-05T10:00:00Z"
	snap := Build([]entity.Document{doc})
	if snap.CurrentMedications[0].SourceDate != "2024-05-05T10:00:00Z" {
		t.Errorf("expected upload time fallback, got %s", snap.CurrentMedications[0].SourceDate)
	}
}
