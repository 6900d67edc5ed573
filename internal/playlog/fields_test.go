package playlog

import "testing"

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"3:00", 180, true},
		{"61:30", 3690, true},
		{"1:01:30", 3690, true},
		{"0:00", 0, true},
		{" 4:05 ", 245, true},
		{"0", 0, false},
		{"", 0, false},
		{"180", 0, false},
		{"1:2:3:4", 0, false},
		{"3:xx", 0, false},
		{"-1:30", 0, false},
		{"+1:30", 0, false},
		{"3:", 0, false},
		{"3.5:00", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseDuration(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseDuration(%q) = %d, %v; want %d, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFileFormat(t *testing.T) {
	cases := map[string]string{
		"/music/a/track.MP3":           "mp3",
		"C:\\Music\\Album\\track.flac": "flac",
		"/music/dir.v2/track":          "unknown",
		"":                             "unknown",
		"file:///music/song.m4a":       "m4a",
	}
	for in, want := range cases {
		if got := FileFormat(in); got != want {
			t.Fatalf("FileFormat(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCommentYear(t *testing.T) {
	cases := map[string]int{
		"Recorded 1959":            1959,
		"ripped 2004, remaster 19": 2004,
		"catalog 18991 then 2010":  2010,
		"no year here":             0,
		"":                         0,
	}
	for in, want := range cases {
		if got := CommentYear(in); got != want {
			t.Fatalf("CommentYear(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[int]string{
		3690: "1:01:30",
		185:  "03:05",
		0:    "00:00",
		-5:   "00:00",
		3600: "1:00:00",
	}
	for in, want := range cases {
		if got := FormatDuration(in); got != want {
			t.Fatalf("FormatDuration(%d) = %q, want %q", in, got, want)
		}
	}
}
