package probe

import (
	"context"
	"reflect"
	"testing"
)

func TestInferTypeForColumn(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"integers", []string{"1", "2", "42", "-7"}, "integer"},
		{"floats", []string{"1.5", "2.25", "3e2"}, "float"},
		{"mixed int and float", []string{"1", "2.5"}, "float"},
		{"booleans", []string{"true", "false", "Yes", "no"}, "boolean"},
		{"dates iso", []string{"2024-01-15", "2024-02-20"}, "date"},
		{"timestamps", []string{"2024-01-15T10:30:00Z", "2024-02-20T08:00:00Z"}, "datetime"},
		{"date and timestamp mix", []string{"2024-01-15", "2024-02-20T08:00:00Z"}, "datetime"},
		{"categorical", []string{"circle", "light", "circle", "light", "circle", "fireball"}, "categorical"},
		{"free text", []string{"saw a bright object", "hovering disc", "strange lights", "loud hum"}, "text"},
		{"all empty", []string{"", "  ", ""}, "text"},
		{"ones and zeroes stay integer", []string{"1", "0", "1", "0"}, "integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inferTypeForColumn(tt.values); got != tt.want {
				t.Fatalf("inferTypeForColumn(%v) = %q, want %q", tt.values, got, tt.want)
			}
		})
	}
}

func TestNormalizeFieldName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Duration (seconds)", "duration_seconds"},
		{"City.Latitude", "city_latitude"},
		{"  Shape  ", "shape"},
		{"Počet případů", "pocet_pripadu"},
		{"Année-Début", "annee_debut"},
		{"___", "col"},
		{"%%%", "col"},
		{"UPPER_CASE", "upper_case"},
		{"a--b..c  d", "a_b_c_d"},
	}
	for _, tt := range tests {
		if got := normalizeFieldName(tt.in); got != tt.want {
			t.Fatalf("normalizeFieldName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSelectBestLayoutPrefersISO(t *testing.T) {
	// Every sample parses under both ISO and the dotted layouts; the
	// preference weight must settle on ISO.
	samples := []string{"2024-01-02", "2024-03-04"}
	got := selectBestLayout(samples, dateLayouts, dateLayoutPreference)
	if got != "2006-01-02" {
		t.Fatalf("selectBestLayout = %q, want ISO", got)
	}
}

func TestSelectBestLayoutDMY(t *testing.T) {
	// 25.12.2024 cannot be MDY, so the DMY dotted layout must win.
	samples := []string{"25.12.2024", "01.02.2024", "31.01.2024"}
	got := selectBestLayout(samples, dateLayouts, dateLayoutPreference)
	if got != "02.01.2006" {
		t.Fatalf("selectBestLayout = %q, want DMY dotted", got)
	}
}

func TestChooseMajorityLayout(t *testing.T) {
	layouts := []string{"2006-01-02", "2006-01-02", "02.01.2006", ""}
	inferred := []string{"date", "date", "date", "text"}
	if got := chooseMajorityLayout(layouts, inferred); got != "2006-01-02" {
		t.Fatalf("chooseMajorityLayout = %q, want ISO", got)
	}
	if got := chooseMajorityLayout([]string{""}, []string{"text"}); got != "" {
		t.Fatalf("chooseMajorityLayout on no detections = %q, want empty", got)
	}
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		sample string
		want   rune
	}{
		{"a,b,c\n1,2,3\n", ','},
		{"a;b;c\n1;2;3\n", ';'},
		{"a\tb\tc\n", '\t'},
		{"a|b|c\n", '|'},
		{"single\n", ','},
	}
	for _, tt := range tests {
		if got := sniffDelimiter([]byte(tt.sample)); got != tt.want {
			t.Fatalf("sniffDelimiter(%q) = %q, want %q", tt.sample, got, tt.want)
		}
	}
}

func TestDecodeDelimiter(t *testing.T) {
	if got := DecodeDelimiter(""); got != ',' {
		t.Fatalf("empty = %q, want comma", got)
	}
	if got := DecodeDelimiter("tab"); got != '\t' {
		t.Fatalf("tab = %q, want tab rune", got)
	}
	if got := DecodeDelimiter(";"); got != ';' {
		t.Fatalf("semicolon = %q", got)
	}
}

func TestReadSampleSkipsMisalignedRows(t *testing.T) {
	data := []byte("a,b\n1,2\nonly_one_field\n3,4\n")
	headers, rows, err := readSample(data, ',')
	if err != nil {
		t.Fatalf("readSample: %v", err)
	}
	if !reflect.DeepEqual(headers, []string{"a", "b"}) {
		t.Fatalf("headers = %v", headers)
	}
	want := [][]string{{"1", "2"}, {"3", "4"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %v, want %v", rows, want)
	}
}

func TestReadSampleStripsBOM(t *testing.T) {
	data := []byte("\uFEFFid,name\n1,ann\n")
	headers, _, err := readSample(data, ',')
	if err != nil {
		t.Fatalf("readSample: %v", err)
	}
	if headers[0] != "id" {
		t.Fatalf("headers[0] = %q, want %q", headers[0], "id")
	}
}

func TestNormalizeAllDisambiguates(t *testing.T) {
	got := normalizeAll([]string{"Name", "name", "NAME", "Other"})
	want := []string{"name", "name_2", "name_3", "other"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("normalizeAll = %v, want %v", got, want)
	}
}

func withFakePeek(t *testing.T, data []byte) {
	t.Helper()
	orig := peekFn
	peekFn = func(ctx context.Context, url string, n int, insecure bool) ([]byte, error) {
		if n < len(data) {
			return data[:n], nil
		}
		return data, nil
	}
	t.Cleanup(func() { peekFn = orig })
}

func TestProbeEndToEnd(t *testing.T) {
	sample := "Date Time,Shape,Duration (Seconds),Comments\n" +
		"2024-01-15T10:30:00Z,circle,30,bright light over the bay\n" +
		"2024-01-16T23:05:00Z,circle,120,slow moving object\n" +
		"2024-02-01T04:12:00Z,light,15,vanished instantly\n" +
		"2024-02-03T19:44:00Z,light,600,hovered then shot upward\n"
	withFakePeek(t, []byte(sample))

	p, err := Probe(context.Background(), Options{
		URL:     "https://example.com/data/ufo-sightings.csv",
		Name:    "ufo",
		Backend: "sqlite",
	})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}

	if p.Job != "ufo" {
		t.Fatalf("job = %q", p.Job)
	}
	if p.Source.Kind != "http" || p.Source.HTTP.URL != "https://example.com/data/ufo-sightings.csv" {
		t.Fatalf("source = %+v", p.Source)
	}
	if p.Parser.Kind != "csv" || !p.Parser.Options.Bool("has_header", false) {
		t.Fatalf("parser = %+v", p.Parser)
	}

	hm := p.Parser.Options.StringMap("header_map")
	if hm["Date Time"] != "date_time" || hm["Duration (Seconds)"] != "duration_seconds" {
		t.Fatalf("header_map = %v", hm)
	}

	if p.Clean.Coerce == nil {
		t.Fatal("expected coerce block")
	}
	types := p.Clean.Coerce.Types
	if types["date_time"] != "datetime" {
		t.Fatalf("date_time type = %q", types["date_time"])
	}
	if types["shape"] != "categorical" {
		t.Fatalf("shape type = %q", types["shape"])
	}
	if types["duration_seconds"] != "integer" {
		t.Fatalf("duration_seconds type = %q", types["duration_seconds"])
	}
	if _, ok := types["comments"]; ok {
		t.Fatal("text columns must not appear in coerce types")
	}
	if p.Clean.Dedup == nil || !p.Clean.Dedup.Enabled {
		t.Fatal("expected dedup enabled")
	}

	if p.Storage == nil || p.Storage.Kind != "sqlite" {
		t.Fatalf("storage = %+v", p.Storage)
	}
	if p.Storage.DB.Table != "ufo" || !p.Storage.DB.AutoCreateTable {
		t.Fatalf("storage db = %+v", p.Storage.DB)
	}
}

func TestProbeFileSourceAndDerivedName(t *testing.T) {
	withFakePeek(t, []byte("a;b\n1;x\n2;y\n"))

	p, err := Probe(context.Background(), Options{URL: "file:///data/pocasi-2024.csv"})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if p.Source.Kind != "file" || p.Source.File.Path != "/data/pocasi-2024.csv" {
		t.Fatalf("source = %+v", p.Source)
	}
	if p.Job == "" {
		t.Fatal("expected derived job name")
	}
	if got := p.Parser.Options.String("comma", ","); got != ";" {
		t.Fatalf("comma option = %q, want %q", got, ";")
	}
	if p.Storage != nil {
		t.Fatalf("storage should be absent, got %+v", p.Storage)
	}
}

func TestProbeEmptySample(t *testing.T) {
	withFakePeek(t, nil)
	if _, err := Probe(context.Background(), Options{URL: "https://example.com/x.csv"}); err == nil {
		t.Fatal("expected error on empty sample")
	}
}

func TestProbeRequiresURL(t *testing.T) {
	if _, err := Probe(context.Background(), Options{}); err == nil {
		t.Fatal("expected error on missing url")
	}
}
