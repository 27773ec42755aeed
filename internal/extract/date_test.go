package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		months MonthTable
		want   time.Time
		wantOK bool
	}{
		{
			name:   "german month with dotted day",
			input:  "9. November 2020",
			months: GermanMonths,
			want:   time.Date(2020, time.November, 9, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "german umlaut month",
			input:  "3. März 2021",
			months: GermanMonths,
			want:   time.Date(2021, time.March, 3, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "romanian month",
			input:  "15 noiembrie 2020",
			months: RomanianMonths,
			want:   time.Date(2020, time.November, 15, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "english month with comma",
			input:  "1 December, 2019",
			months: EnglishMonths,
			want:   time.Date(2019, time.December, 1, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "dotted numeric",
			input:  "09.11.2020",
			months: GermanMonths,
			want:   time.Date(2020, time.November, 9, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "slashed numeric without table",
			input:  "9/11/2020",
			want:   time.Date(2020, time.November, 9, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "iso",
			input:  "2020-11-09",
			want:   time.Date(2020, time.November, 9, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{name: "day overflow", input: "31. November 2020", months: GermanMonths},
		{name: "unknown month", input: "9. Brumaire 2020", months: GermanMonths},
		{name: "garbage", input: "soon", months: EnglishMonths},
		{name: "empty", input: "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input, tt.months)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMonthAlternationLongestFirst(t *testing.T) {
	alt := monthAlternation(GermanMonths)
	assert.Less(t, strings.Index(alt, "september"), strings.Index(alt, "mai"))
}

