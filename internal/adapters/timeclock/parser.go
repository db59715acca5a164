package timeclock

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"

	"timebank.service/internal/core/journey"
)

// Codes whose justification paragraphs may already hold text for a day.
// The first non-empty one wins.
var justificationLookupCodes = []string{"706", "260", "261", "097", "098", "280", "276"}

// ParsePunchTable extracts one journey.Day per row of the punch table.
func ParsePunchTable(doc *goquery.Document, loc *time.Location) ([]journey.Day, error) {
	table := doc.Find("table.fiotabelaponto").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no punch table", ErrUnexpectedPage)
	}

	var (
		days     []journey.Day
		parseErr error
	)
	table.Find("tr.celulatabptomarc").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		rawDate := normalize(row.Find("font.fontetabptodata").First().Text())
		date, err := parseDate(rawDate, loc)
		if err != nil {
			parseErr = err
			return false
		}

		punches, err := parseMarks(date, row.Find("font.fontetabptomarc").First().Text())
		if err != nil {
			parseErr = err
			return false
		}

		days = append(days, journey.Day{
			Date:          date,
			Punches:       punches,
			Justification: findJustification(table, dateKey(rawDate)),
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return days, nil
}

func normalize(s string) string {
	return strings.TrimSpace(norm.NFKD.String(s))
}

// dateKey is the dd/mm/yyyy prefix the table uses in element ids.
func dateKey(s string) string {
	r := []rune(s)
	if len(r) > 10 {
		r = r[:10]
	}
	return strings.TrimSpace(string(r))
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(formDate, dateKey(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid punch date %q: %w", s, err)
	}
	return d, nil
}

// parseMarks reads "08:01 12:00 13:02 --:--" style cells. "Sem marcações"
// means no punches.
func parseMarks(date time.Time, cell string) (journey.Punches, error) {
	cell = normalize(cell)
	if strings.HasPrefix(cell, "Sem") {
		return nil, nil
	}

	var punches journey.Punches
	for _, mark := range strings.Fields(cell) {
		h, m, ok := strings.Cut(mark, ":")
		if !ok {
			return nil, fmt.Errorf("invalid punch %q on %s", mark, date.Format(formDate))
		}
		if h == "--" {
			continue
		}
		hour, err := strconv.Atoi(h)
		if err != nil {
			return nil, fmt.Errorf("invalid punch hour %q on %s: %w", mark, date.Format(formDate), err)
		}
		minute, err := strconv.Atoi(m)
		if err != nil {
			return nil, fmt.Errorf("invalid punch minute %q on %s: %w", mark, date.Format(formDate), err)
		}
		y, mo, d := date.Date()
		punches = append(punches, time.Date(y, mo, d, hour, minute, 0, 0, date.Location()))
	}

	if err := punches.Validate(); err != nil {
		log.Warn().Err(err).Str("day", date.Format(time.DateOnly)).Msg("Reordering punches from time clock")
		sort.Slice(punches, func(i, j int) bool { return punches[i].Before(punches[j]) })
	}
	return punches, nil
}

func findJustification(table *goquery.Selection, key string) string {
	for _, code := range justificationLookupCodes {
		var text string
		table.Find(fmt.Sprintf(`p[id="%s%s"] input`, key, code)).EachWithBreak(func(_ int, in *goquery.Selection) bool {
			text = strings.TrimSpace(in.AttrOr("value", ""))
			return text == ""
		})
		if text != "" {
			return text
		}
	}
	return ""
}
