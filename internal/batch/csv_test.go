package batch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/signal-agent/internal/schemas"
)

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Row
	}{
		{
			name: "header row",
			in:   "domain,company,vertical\nbrightsmile.com,Bright Smile,dentists\n",
			want: []Row{{Domain: "brightsmile.com", Company: "Bright Smile", Vertical: "dentists", Line: 2}},
		},
		{
			name: "reordered header with BOM",
			in:   "\ufeffvertical,domain\nmed_spas,glow.example\n",
			want: []Row{{Domain: "glow.example", Vertical: "med_spas", Line: 2}},
		},
		{
			name: "positional without header",
			in:   "a.com,A\nb.com\n",
			want: []Row{{Domain: "a.com", Company: "A", Line: 1}, {Domain: "b.com", Line: 2}},
		},
		{
			name: "blank domains and comments skipped",
			in:   "domain,company\n# paused\n,Nobody\n  c.com , C \n",
			want: []Row{{Domain: "c.com", Company: "C", Line: 4}},
		},
		{
			name: "quoted company",
			in:   "domain,company\nd.com,\"Smith, Jones & Co\"\n",
			want: []Row{{Domain: "d.com", Company: "Smith, Jones & Co", Line: 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ReadCSV(strings.NewReader(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows)
		})
	}
}

func TestReadCSV_Malformed(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("domain\n\"unterminated\n"))
	assert.Error(t, err)
}

func TestReadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "domains.csv")
	require.NoError(t, os.WriteFile(path, []byte("domain\na.com\n"), 0o644))

	rows, err := ReadCSVFile(path)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = ReadCSVFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestCheckRecords(t *testing.T) {
	in := strings.Join([]string{
		`{"domain":"a.com","company":"A","vertical":"dentists","card":null,"email":null}`,
		``,
		`{"domain":"b.com"`,
		`{"domain":"c.com","company":"C","vertical":"","card":null}`,
	}, "\n")

	failures, checked, err := CheckRecords(strings.NewReader(in), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, checked)
	require.Len(t, failures, 2)
	assert.Equal(t, 3, failures[0].Line)
	assert.Equal(t, 4, failures[1].Line)
	assert.Contains(t, failures[0].Error(), "line 3")

	var lineErr *LineError
	assert.True(t, errors.As(error(failures[1]), &lineErr))
}

func TestCheckRecords_CustomSchema(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "carded.schema.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte(`{"type":"object","required":["card"],"properties":{"card":{"type":"object"}}}`), 0o644))
	schema, err := schemas.LoadFile(schemaPath)
	require.NoError(t, err)

	in := `{"domain":"a.com","card":{"signal_type":"hiring"}}` + "\n" + `{"domain":"b.com","card":null}` + "\n"
	failures, checked, err := CheckRecords(strings.NewReader(in), schema)
	require.NoError(t, err)
	assert.Equal(t, 2, checked)
	require.Len(t, failures, 1)
	assert.Equal(t, 2, failures[0].Line)
	assert.Contains(t, failures[0].Error(), "carded.schema.json")
}
