// Command timeclock-mock serves a fake time-clock site for local runs of the
// API, the submission worker and the CLI.
package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/charmap"
)

const (
	base     = "/forponto/FptoWeb.exe"
	password = "1234"
	formDate = "02/01/2006"
)

type mock struct {
	mu             sync.Mutex
	justifications map[string]string
}

func (m *mock) write(w http.ResponseWriter, page string) {
	w.Header().Set("Content-Type", "text/html; charset=windows-1252")
	b, err := charmap.Windows1252.NewEncoder().String(page)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte(b))
}

func (m *mock) form(r *http.Request, key string) string {
	v, err := charmap.Windows1252.NewDecoder().String(r.PostForm.Get(key))
	if err != nil {
		return r.PostForm.Get(key)
	}
	return v
}

func (m *mock) login(w http.ResponseWriter, r *http.Request) {
	if m.form(r, "deEdtFunConsulta") != password {
		log.Warn().Str("user", m.form(r, "deEdtFunCracha")).Msg("Rejected login")
		m.write(w, `<html><body>Código de Consulta Inválido</body></html>`)
		return
	}
	badge := m.form(r, "deEdtFunCracha")
	m.write(w, fmt.Sprintf(`<html><frameset><frame name="topFrame" src="%s/PiTopo?cracha=%s"></frameset></html>`, base, badge))
}

func (m *mock) top(w http.ResponseWriter, r *http.Request) {
	m.write(w, fmt.Sprintf(`<html><body>
<input name="deEdtUserId" value="SESSION-1">
<input name="deEdtUsuCodigo" value="U-1">
<input name="deEdtFunCracha" value="%s">
</body></html>`, r.URL.Query().Get("cracha")))
}

func (m *mock) consult(w http.ResponseWriter, r *http.Request) {
	from, err1 := time.Parse(formDate, m.form(r, "deEdtDataDe"))
	to, err2 := time.Parse(formDate, m.form(r, "deEdtDataAte"))
	if err1 != nil || err2 != nil {
		http.Error(w, "bad period", http.StatusBadRequest)
		return
	}
	m.write(w, fmt.Sprintf(`<html><frameset><frame name="topFrame" src="%s/PiTabela?de=%s&ate=%s"></frameset></html>`,
		base, from.Format("2006-01-02"), to.Format("2006-01-02")))
}

func (m *mock) table(w http.ResponseWriter, r *http.Request) {
	from, _ := time.Parse("2006-01-02", r.URL.Query().Get("de"))
	to, _ := time.Parse("2006-01-02", r.URL.Query().Get("ate"))

	m.mu.Lock()
	defer m.mu.Unlock()

	var rows, inputs strings.Builder
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		fmt.Fprintf(&rows, `<tr class="celulatabptomarc"><td><font class="fontetabptodata">%s</font></td><td><font class="fontetabptomarc">%s</font></td></tr>`+"\n",
			d.Format(formDate), punchesFor(d))
		for key, text := range m.justifications {
			if strings.HasPrefix(key, d.Format(formDate)) {
				fmt.Fprintf(&inputs, `<p id="%s"><input type="text" value="%s"></p>`+"\n", key, text)
			}
		}
	}

	m.write(w, `<html><body><table class="fiotabelaponto">`+"\n"+rows.String()+
		`<tr><td>`+inputs.String()+`</td></tr></table></body></html>`)
}

func (m *mock) justify(w http.ResponseWriter, r *http.Request) {
	day, code, text := m.form(r, "deEdtDataDe"), m.form(r, "deEdtMtvCodigo"), m.form(r, "deEdtJusJustificativa")
	if day == "" || code == "" || text == "" {
		m.write(w, `<html><body>Erro ao gravar justificativa</body></html>`)
		return
	}

	m.mu.Lock()
	m.justifications[day+code] = text
	m.mu.Unlock()

	log.Info().Str("day", day).Str("code", code).Str("text", text).Msg("Justification recorded")
	m.write(w, `<html><body>Operação efetuada com sucesso</body></html>`)
}

// punchesFor makes up a stable week: short Mondays, long Tuesdays, a late
// Thursday and a forgotten punch on Wednesdays.
func punchesFor(d time.Time) string {
	switch d.Weekday() {
	case time.Monday:
		return "08:00 12:00 13:00 17:00"
	case time.Tuesday:
		return "07:40 12:00 13:00 18:30"
	case time.Wednesday:
		return "08:05 12:00 13:02"
	case time.Thursday:
		return "09:00 12:00 12:55 12:58 13:30 22:40"
	case time.Friday:
		return "08:00 12:00 13:00 17:15"
	default:
		return "Sem marcações"
	}
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	m := &mock{justifications: map[string]string{}}

	mux := http.NewServeMux()
	mux.HandleFunc(base, func(w http.ResponseWriter, r *http.Request) {
		m.write(w, `<html><body><form><input name="deEdtUserId" value="TMP-1"></form></body></html>`)
	})
	post := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "bad form", http.StatusBadRequest)
				return
			}
			h(w, r)
		}
	}
	mux.HandleFunc(base+"/PiConexaoUsuario", post(m.login))
	mux.HandleFunc(base+"/PiTopo", m.top)
	mux.HandleFunc(base+"/PiConsulta", post(m.consult))
	mux.HandleFunc(base+"/PiTabela", m.table)
	mux.HandleFunc(base+"/PiGravaJust", post(m.justify))

	log.Info().Str("addr", ":8081").Str("password", password).Msg("Time clock mock server starting")
	if err := http.ListenAndServe(":8081", mux); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}
