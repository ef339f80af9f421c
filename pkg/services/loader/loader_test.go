package loader

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/de-tools/book-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const sample = `[
	{"Company": "Acme", "Brand": "Data & AI", "Spend": 100},
	{"Company": "Beta", "Spend": "250.5", "Region": "EMEA"}
]`

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		columns   []string
		records   int
		expectErr bool
	}{
		{
			name:    "array",
			body:    sample,
			columns: []string{"Company", "Brand", "Spend", "Region"},
			records: 2,
		},
		{
			name:    "wrapped",
			body:    `{"metadata": {"generated": "2024-05-01"}, "data": [{"b": 1, "a": 2}]}`,
			columns: []string{"b", "a"},
			records: 1,
		},
		{
			name:    "empty array",
			body:    `[]`,
			columns: []string{},
			records: 0,
		},
		{name: "not json", body: `hello`, expectErr: true},
		{name: "blank", body: `  `, expectErr: true},
		{name: "array of scalars", body: `[1, 2]`, expectErr: true},
		{name: "truncated", body: `[{"a": 1}`, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := Decode(strings.NewReader(tt.body))
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.columns, ds.Columns)
			assert.Equal(t, tt.records, ds.Len())
		})
	}
}

func TestDecode_KeepsValues(t *testing.T) {
	ds, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, 100.0, ds.Records[0]["Spend"])
	assert.Equal(t, "250.5", ds.Records[1]["Spend"])
	assert.Equal(t, 250.5, ds.Records[1].Number("Spend"))
	_, hasBrand := ds.Records[1]["Brand"]
	assert.False(t, hasBrand)
}

func TestJSONLoader_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.json")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	src, err := NewSource(context.Background(), path)
	require.NoError(t, err)
	assert.IsType(t, FileSource{}, src)

	ds, err := NewJSONLoader(src, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
}

func TestJSONLoader_MissingFile(t *testing.T) {
	l := NewJSONLoader(FileSource{Path: filepath.Join(t.TempDir(), "nope.json")}, nil)

	_, err := l.Load(context.Background())

	assert.ErrorIs(t, err, ErrLoad)
}

func TestJSONLoader_HTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.json":
			_, _ = w.Write([]byte(sample))
		case "/broken.json":
			_, _ = w.Write([]byte(`{"data": "nope"`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	tests := []struct {
		name      string
		path      string
		expectErr bool
	}{
		{name: "success", path: "/ok.json"},
		{name: "not found", path: "/missing.json", expectErr: true},
		{name: "malformed body", path: "/broken.json", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewSource(context.Background(), server.URL+tt.path)
			require.NoError(t, err)

			ds, err := NewJSONLoader(src, nil).Load(context.Background())
			if tt.expectErr {
				assert.ErrorIs(t, err, ErrLoad)
				assert.Zero(t, ds.Len())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 2, ds.Len())
		})
	}
}

func TestJSONLoader_S3(t *testing.T) {
	client := new(mockS3)
	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return *in.Bucket == "dashboards" && *in.Key == "ibm/book.json"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(sample))}, nil).Once()
	client.On("GetObject", mock.Anything, mock.Anything).Return(nil, errors.New("NoSuchKey"))

	src := S3Source{Client: client, Bucket: "dashboards", Key: "ibm/book.json"}
	assert.Equal(t, "s3://dashboards/ibm/book.json", src.String())

	ds, err := NewJSONLoader(src, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())

	_, err = NewJSONLoader(S3Source{Client: client, Bucket: "dashboards", Key: "other.json"}, nil).Load(context.Background())
	assert.ErrorIs(t, err, ErrLoad)

	client.AssertExpectations(t)
}

func TestJSONLoader_Transform(t *testing.T) {
	src := FileSource{Path: filepath.Join(t.TempDir(), "book.json")}
	require.NoError(t, os.WriteFile(src.Path, []byte(sample), 0o600))

	l := NewJSONLoader(src, func(ds domain.Dataset) domain.Dataset {
		return domain.Dataset{Columns: []string{"Company"}, Records: ds.Records[:1]}
	})

	ds, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Company"}, ds.Columns)
	assert.Equal(t, 1, ds.Len())
}

func TestNewSource(t *testing.T) {
	tests := []struct {
		name      string
		location  string
		expected  any
		expectErr bool
	}{
		{name: "relative path", location: "data/book.json", expected: FileSource{}},
		{name: "file url", location: "file:///tmp/book.json", expected: FileSource{}},
		{name: "https", location: "https://example.com/book.json", expected: HTTPSource{}},
		{name: "empty", location: "", expectErr: true},
		{name: "unsupported", location: "ftp://example.com/book.json", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewSource(context.Background(), tt.location)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.expected, src)
		})
	}
}
