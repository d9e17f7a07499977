package market

import (
	"encoding/json"
	"regexp"
	"strings"
)

// SimpleComment is the paragraph-style commentary shape served to clients.
type SimpleComment struct {
	Titulo     string `json:"titulo"`
	Comentario string `json:"comentario"`
	Riesgos    string `json:"riesgos"`
	Confianza  string `json:"confianza"`
}

// LegacyComment is the older bullet-style shape kept for compatibility.
type LegacyComment struct {
	Headline       string   `json:"headline"`
	Bullets        []string `json:"bullets"`
	Interpretation string   `json:"interpretation"`
	Risks          []string `json:"risks"`
	Confidence     string   `json:"confidence"`
}

// modelComment covers both output shapes the model has produced over time:
// the old one with resumen/puntos_clave arrays, and the newer one with a
// single comentario paragraph and a riesgos line.
type modelComment struct {
	Titulo     *string         `json:"titulo"`
	Resumen    *string         `json:"resumen"`
	Comentario *string         `json:"comentario"`
	PuntosClav []string        `json:"puntos_clave"`
	Riesgos    json.RawMessage `json:"riesgos"` // string or array
	Confianza  *string         `json:"confianza"`
}

func ensureStr(s *string, fallback string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return fallback
	}
	return strings.TrimSpace(*s)
}

func ensureConfidence(s *string) string {
	if s != nil {
		switch *s {
		case "Alta", "Media", "Baja":
			return *s
		}
	}
	return "Baja"
}

var risksPrefix = regexp.MustCompile(`(?i)^riesgos:\s*`)

// normalizeRisksLine guarantees the "Riesgos: ..." prefix exactly once.
func normalizeRisksLine(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		s = "Riesgos: sin dato; sin dato"
	}
	if risksPrefix.MatchString(s) {
		return risksPrefix.ReplaceAllString(s, "Riesgos: ")
	}
	return "Riesgos: " + s
}

// ToSimpleFromModel coerces whatever the model produced into the simple
// shape. It is total: any input yields a usable comment, with "sin dato"
// filling the gaps. The comentario field discriminates the two shapes.
func ToSimpleFromModel(raw json.RawMessage) SimpleComment {
	var mc modelComment
	_ = json.Unmarshal(raw, &mc)

	if mc.Comentario != nil {
		riesgos := "sin dato; sin dato"
		var line string
		if err := json.Unmarshal(mc.Riesgos, &line); err == nil && strings.TrimSpace(line) != "" {
			riesgos = line
		}
		return SimpleComment{
			Titulo:     ensureStr(mc.Titulo, noData),
			Comentario: ensureStr(mc.Comentario, noData),
			Riesgos:    normalizeRisksLine(riesgos),
			Confianza:  ensureConfidence(mc.Confianza),
		}
	}

	var risksArr []string
	_ = json.Unmarshal(mc.Riesgos, &risksArr)
	kept := make([]string, 0, 2)
	for _, r := range risksArr {
		if strings.TrimSpace(r) == "" {
			continue
		}
		kept = append(kept, strings.TrimSpace(r))
		if len(kept) == 2 {
			break
		}
	}
	line := strings.Join(kept, "; ")
	if line == "" {
		line = "sin dato; sin dato"
	}

	return SimpleComment{
		Titulo:     ensureStr(mc.Titulo, noData),
		Comentario: ensureStr(mc.Resumen, noData),
		Riesgos:    normalizeRisksLine("Riesgos: " + line),
		Confianza:  ensureConfidence(mc.Confianza),
	}
}

// ToLegacy derives the bullet-style shape from the raw model output plus
// the already-normalized simple comment.
func ToLegacy(raw json.RawMessage, simple SimpleComment) LegacyComment {
	var mc modelComment
	_ = json.Unmarshal(raw, &mc)

	bullets := make([]string, 0, 4)
	for _, b := range mc.PuntosClav {
		if strings.TrimSpace(b) == "" {
			continue
		}
		bullets = append(bullets, b)
		if len(bullets) == 4 {
			break
		}
	}

	risks := make([]string, 0, 2)
	for _, r := range strings.Split(risksPrefix.ReplaceAllString(simple.Riesgos, ""), ";") {
		if v := strings.TrimSpace(r); v != "" {
			risks = append(risks, v)
		}
		if len(risks) == 2 {
			break
		}
	}

	return LegacyComment{
		Headline:       simple.Titulo,
		Bullets:        bullets,
		Interpretation: simple.Comentario,
		Risks:          risks,
		Confidence:     simple.Confianza,
	}
}
