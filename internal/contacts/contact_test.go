package contacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/360EntSecGroup-Skylar/excelize"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw    string
		region string
		want   string
	}{
		{"+91 98765 43210", "IN", "919876543210"},
		{"9876543210", "IN", "919876543210"},
		{"919876543210", "IN", "919876543210"},
		{"0091 98765 43210", "US", "919876543210"},
		{"+1 (650) 253-0000", "IN", "16502530000"},
		{"12345", "IN", "12345"},
		{"n/a", "IN", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.raw, tt.region); got != tt.want {
			t.Errorf("Normalize(%q, %q) = %q, want %q", tt.raw, tt.region, got, tt.want)
		}
	}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.csv")
	body := "Name,WhatsApp Number,nick_name,City\n" +
		"Asha,9876543210,Ash,Pune\n" +
		"Nobody,,x,y\n" +
		"Ravi,+91 91234 56789,,Delhi\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path, "IN")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 contacts (blank number skipped), got %d", len(got))
	}
	if got[0].Name != "Asha" || got[0].Nickname != "Ash" || got[0].Normalized != "919876543210" {
		t.Errorf("unexpected first contact %+v", got[0])
	}
	if got[0].Fields["City"] != "Pune" {
		t.Errorf("extra column lost: %+v", got[0].Fields)
	}
	if got[1].Number != "+91 91234 56789" || got[1].Nickname != "" {
		t.Errorf("unexpected second contact %+v", got[1])
	}
}

func TestLoadCSVQuotedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.csv")
	body := "City, Name,WhatsApp Number\n" +
		"\"Pune, MH\", \"Asha \"\"A\"\" K\",9876543210\n" +
		"Delhi,Ravi 5\" tall,9123456789\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path, "IN")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 contacts, got %d", len(got))
	}
	tests := []struct {
		name, city, number string
	}{
		{`Asha "A" K`, "Pune, MH", "919876543210"},
		{`Ravi 5" tall`, "Delhi", "919123456789"},
	}
	for i, tt := range tests {
		if got[i].Name != tt.name || got[i].Fields["City"] != tt.city || got[i].Normalized != tt.number {
			t.Errorf("contact %d = %+v, want name %q city %q number %s", i, got[i], tt.name, tt.city, tt.number)
		}
	}
}

func TestLoadCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.csv")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, "IN"); err == nil {
		t.Fatal("expected empty sheet error")
	}
}

func TestLoadCSVWithoutNumberColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.csv")
	if err := os.WriteFile(path, []byte("Name,Email\nA,a@x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, "IN"); err == nil {
		t.Fatal("expected missing column error")
	}
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.xlsx")

	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Name")
	f.SetCellValue("Sheet1", "B1", "WhatsApp Number")
	f.SetCellValue("Sheet1", "C1", "nick_name")
	f.SetCellValue("Sheet1", "A2", "Meera")
	f.SetCellValue("Sheet1", "B2", "9876543210")
	f.SetCellValue("Sheet1", "C2", "Mee")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path, "IN")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 contact, got %d", len(got))
	}
	if got[0].Name != "Meera" || got[0].Nickname != "Mee" || got[0].Normalized != "919876543210" {
		t.Errorf("unexpected contact %+v", got[0])
	}
}

func TestLoadExcluded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.txt")
	body := "phone\n# internal numbers\n+91 98765 43210\n9123456789,blocked\n\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadExcluded(path, "IN")
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []string{"919876543210", "919123456789"} {
		if _, ok := got[n]; !ok {
			t.Errorf("%s not excluded: %v", n, got)
		}
	}
	if len(got) != 2 {
		t.Errorf("want 2 exclusions, got %v", got)
	}

	missing, err := LoadExcluded(filepath.Join(t.TempDir(), "none.txt"), "IN")
	if err != nil || len(missing) != 0 {
		t.Errorf("missing file should mean no exclusions, got %v, %v", missing, err)
	}
}
