package apiclient

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_UnmarshalJSON(t *testing.T) {
	cases := map[string]struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		"rfc3339": {
			in:   `"2024-03-05T10:20:30Z"`,
			want: time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC),
		},
		"no zone": {
			in:   `"2024-03-05T10:20:30"`,
			want: time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC),
		},
		"dotnet fraction": {
			in:   `"2024-03-05T10:20:30.1234567"`,
			want: time.Date(2024, 3, 5, 10, 20, 30, 123456700, time.UTC),
		},
		"date only": {
			in:   `"2024-03-05"`,
			want: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		},
		"null":  {in: `null`},
		"empty": {in: `""`},
		"garbage": {
			in:      `"ayer"`,
			wantErr: true,
		},
		"number": {
			in:      `12`,
			wantErr: true,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tc.in), &d)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(d.Time), "got %s", d.Time)
		})
	}
}

func TestDate_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		A Date `json:"a"`
		B Date `json:"b"`
	}{
		A: NewDate(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": "2024-01-02T03:04:05Z", "b": null}`, string(out))
}
