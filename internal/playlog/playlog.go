// Package playlog extracts song records from Squeezebox play-history XML logs.
package playlog

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"

	"github.com/verte-zerg/squeezestats/internal/model"
)

const songElementName = "song"

// songElement mirrors the recognized children of a <song> element.
type songElement struct {
	Artist     string `xml:"artist"`
	Album      string `xml:"album"`
	Title      string `xml:"title"`
	ShortTitle string `xml:"stitle"`
	Date       string `xml:"date"`
	Duration   string `xml:"duration"`
	PlayerName string `xml:"playerName"`
	PlayerID   string `xml:"playerId"`
	Path       string `xml:"path"`
	Comment    string `xml:"comment"`
	Time       string `xml:"time"`
	GUID       string `xml:"guid"`
}

// Extract reads every <song> element that sits at the top level or directly
// under the root element, in document order. A document that is not
// well-formed yields no records and an error wrapping model.ErrMalformedDocument.
func Extract(r io.Reader, source string) ([]model.RawRecord, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var records []model.RawRecord
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed(source, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == songElementName && depth <= 1 {
				var el songElement
				if err := dec.DecodeElement(&el, &t); err != nil {
					return nil, malformed(source, err)
				}
				records = append(records, el.record(source))
				continue
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return records, nil
}

func malformed(source string, err error) error {
	return &model.DocumentError{
		Path: source,
		Err:  fmt.Errorf("%w: %v", model.ErrMalformedDocument, err),
	}
}

func (el songElement) record(source string) model.RawRecord {
	rec := model.RawRecord{
		Artist:       el.Artist,
		Album:        el.Album,
		Title:        el.Title,
		ShortTitle:   el.ShortTitle,
		Date:         el.Date,
		DurationText: el.Duration,
		PlayerName:   el.PlayerName,
		PlayerID:     el.PlayerID,
		Path:         el.Path,
		Comment:      el.Comment,
		Time:         el.Time,
		GUID:         el.GUID,
		FileFormat:   FileFormat(el.Path),
		CommentYear:  CommentYear(el.Comment),
		Source:       source,
	}
	rec.DurationSeconds, rec.HasDuration = ParseDuration(el.Duration)
	return rec
}
