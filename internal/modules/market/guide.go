package market

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SchemaName identifies the structured-output contract requested from the
// language model.
const SchemaName = "comment_schema_simple"

// CommentSchema is the JSON schema the model must satisfy: a headline, a
// short summary, 3-4 key points, 1-2 risks and a confidence label.
var CommentSchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "titulo": {"type": "string"},
    "resumen": {"type": "string"},
    "puntos_clave": {"type": "array", "items": {"type": "string"}, "minItems": 3, "maxItems": 4},
    "riesgos": {"type": "array", "items": {"type": "string"}, "minItems": 1, "maxItems": 2},
    "confianza": {"type": "string", "enum": ["Baja", "Media", "Alta"]}
  },
  "required": ["titulo", "resumen", "puntos_clave", "riesgos", "confianza"]
}`)

// MapConfidence derives the operational confidence label from the model
// probability alone. Missing probability reads as the lowest band.
func MapConfidence(prob *float64) string {
	if prob == nil {
		return "Baja"
	}
	switch {
	case *prob >= 0.8:
		return "Alta"
	case *prob >= 0.6:
		return "Media"
	default:
		return "Baja"
	}
}

const noData = "sin dato"

// fmtNum trims a float to the given decimals without trailing zeros,
// "sin dato" when missing. Matches how the prompt renders numbers.
func fmtNum(x *float64, digits int) string {
	if x == nil {
		return noData
	}
	p := math.Pow(10, float64(digits))
	return strconv.FormatFloat(math.Round(*x*p)/p, 'f', -1, 64)
}

func fmtPct(x *float64, digits int) string {
	if x == nil {
		return noData
	}
	return fmtNum(x, digits) + "%"
}

func strOrNA(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return noData
	}
	return strings.TrimSpace(*s)
}

// Regime is the stability read derived from volatility and the model
// probability, the scenario filter summarized into one word.
type Regime struct {
	Regime string
	Why    []string
}

// InferRegime classifies market stability from VIX level/regime and the
// signal probability.
func InferRegime(snap *Snapshot) Regime {
	vix := snap.Macro.VIX
	vixReg := ""
	if snap.Macro.VIXRegime != nil {
		vixReg = *snap.Macro.VIXRegime
	}
	prob := snap.Scenarios.Probability

	var why []string
	vixStressed := (vix != nil && *vix >= 25) || strings.Contains(strings.ToUpper(vixReg), "HIGH")
	vixCalm := (vix != nil && *vix <= 18) || strings.Contains(strings.ToUpper(vixReg), "LOW")

	if vixStressed {
		why = append(why, fmt.Sprintf("VIX elevado (%s) o régimen HIGH", fmtNum(vix, 2)))
	}
	if vixCalm {
		why = append(why, fmt.Sprintf("VIX bajo/moderado (%s) o régimen LOW", fmtNum(vix, 2)))
	}

	probStrong := prob != nil && *prob >= 0.7
	probWeak := prob != nil && *prob < 0.6
	if probStrong {
		why = append(why, fmt.Sprintf("probabilidad alta (%s)", fmtNum(prob, 3)))
	}
	if probWeak {
		why = append(why, fmt.Sprintf("probabilidad baja (%s)", fmtNum(prob, 3)))
	}

	if vix == nil && vixReg == "" && prob == nil {
		return Regime{Regime: "Sin dato", Why: []string{"macro/signal sin dato"}}
	}
	if vixCalm && probStrong {
		return Regime{Regime: "Estable", Why: why}
	}
	if vixStressed && probWeak {
		return Regime{Regime: "Inestable", Why: why}
	}
	return Regime{Regime: "Mixto", Why: why}
}

// Pressure is the |z| intensity band of the spread deviation.
type Pressure struct {
	Pressure string
	Label    string
}

// InferPressure bands the absolute z-score of the spread.
func InferPressure(snap *Snapshot) Pressure {
	zAbs := snap.Scenarios.ZAbs
	if zAbs == nil && snap.Scenarios.ZScore != nil {
		v := math.Abs(*snap.Scenarios.ZScore)
		zAbs = &v
	}
	if zAbs == nil {
		return Pressure{Pressure: "Sin dato", Label: noData}
	}
	switch {
	case *zAbs >= 2.0:
		return Pressure{Pressure: "Extrema", Label: fmt.Sprintf("|z|=%s (≥2σ)", fmtNum(zAbs, 2))}
	case *zAbs >= 1.5:
		return Pressure{Pressure: "Alta", Label: fmt.Sprintf("|z|=%s (1.5–2σ)", fmtNum(zAbs, 2))}
	case *zAbs >= 1.0:
		return Pressure{Pressure: "Moderada", Label: fmt.Sprintf("|z|=%s (1–1.5σ)", fmtNum(zAbs, 2))}
	default:
		return Pressure{Pressure: "Baja", Label: fmt.Sprintf("|z|=%s (<1σ)", fmtNum(zAbs, 2))}
	}
}

// InferSignalNarrative renders the core reading plus nuance hints for the
// prompt.
func InferSignalNarrative(snap *Snapshot) (core string, nuance []string) {
	signal := snap.Scenarios.Signal
	prob := snap.Scenarios.Probability
	regime := InferRegime(snap)
	pressure := InferPressure(snap)

	switch {
	case signal != nil && *signal == 1:
		nuance = append(nuance, "Señal activa (1): condición consistente con reversión favorable.")
	case signal != nil && *signal == -1:
		nuance = append(nuance, "Señal activa (-1): condición consistente con riesgo elevado.")
	case signal != nil && *signal == 0:
		nuance = append(nuance, "Sin señal discreta (0): no se valida acción.")
	default:
		nuance = append(nuance, "Señal: sin dato.")
	}

	if signal != nil && *signal == 0 && (pressure.Pressure == "Alta" || pressure.Pressure == "Extrema") {
		nuance = append(nuance, fmt.Sprintf("Presión estadística %s %s sin confirmación (pre-señal).",
			strings.ToLower(pressure.Pressure), pressure.Label))
	} else if pressure.Pressure != "Sin dato" {
		nuance = append(nuance, fmt.Sprintf("Presión estadística: %s (%s).", pressure.Pressure, pressure.Label))
	}

	if prob != nil {
		nuance = append(nuance, fmt.Sprintf("Probabilidad: %s.", fmtNum(prob, 3)))
	}
	regimeLine := fmt.Sprintf("Régimen (proxy): %s", regime.Regime)
	if len(regime.Why) > 0 {
		regimeLine += " — " + strings.Join(regime.Why, "; ")
	}
	nuance = append(nuance, regimeLine+".")

	core = "Lectura: "
	switch {
	case signal != nil && *signal == 1:
		core += "escenario favorable filtrado por régimen."
	case signal != nil && *signal == -1:
		core += "escenario desfavorable filtrado por régimen."
	case signal != nil && *signal == 0:
		core += "sin confirmación de señal; evaluar presión y macro."
	default:
		core += "sin dato de señal."
	}
	return core, nuance
}

// InferGoldNarrative renders the gold reading line plus its numeric detail.
func InferGoldNarrative(snap *Snapshot) (line string, details []string) {
	g := snap.Gold

	if g.LastClose != nil && g.LastCloseDate != nil {
		details = append(details, fmt.Sprintf("Último close: %s (fecha %s).", fmtNum(g.LastClose, 2), *g.LastCloseDate))
	} else {
		details = append(details, "Último close: sin dato.")
	}

	if g.Ret7DPct != nil {
		details = append(details, fmt.Sprintf("Retorno 7D: %s.", fmtPct(g.Ret7DPct, 2)))
	}
	if g.Ret30DPct != nil {
		details = append(details, fmt.Sprintf("Retorno 30D: %s.", fmtPct(g.Ret30DPct, 2)))
	}

	if g.NextP50 != nil && g.NextForecastDate != nil {
		band := ""
		if g.NextP10 != nil && g.NextP90 != nil {
			band = fmt.Sprintf(" (P10=%s, P90=%s)", fmtNum(g.NextP10, 2), fmtNum(g.NextP90, 2))
		}
		details = append(details, fmt.Sprintf("Forecast próximo (%s): P50=%s%s.",
			*g.NextForecastDate, fmtNum(g.NextP50, 2), band))
	} else {
		details = append(details, "Forecast próximo: sin dato.")
	}

	if g.NextPctVsLastClose != nil {
		details = append(details, fmt.Sprintf("Diferencia P50 vs último close: %s.", fmtPct(g.NextPctVsLastClose, 2)))
	}
	if g.BandWidthAbs != nil {
		details = append(details, fmt.Sprintf("Ancho banda (P90–P10): %s.", fmtNum(g.BandWidthAbs, 2)))
	}
	if g.BandWidthPctOfLast != nil {
		details = append(details, fmt.Sprintf("Ancho banda vs último close: %s.", fmtPct(g.BandWidthPctOfLast, 2)))
	}

	if g.NextP50 != nil {
		line = "Au: lectura por rango (P10–P90) con centro P50; evitar lectura puntual."
	} else {
		line = "Au: sin forecast; solo lectura de último close y retornos."
	}
	return line, details
}

const systemPrompt = `Eres analista para un dashboard usado por Gerencia General y Finanzas.
Objetivo: explicar el estado del mercado y el riesgo en lenguaje simple.

Reglas:
- No inventes datos. Si falta, di “sin dato”.
- No uses jerga técnica: NO digas “gate”, “bias”, “z_delta”, “clasificador”, etc.
- Sí puedes mencionar 2–3 números como sustento (ej: VIX, |z|, probabilidad, forecast P50 vs último).
- No des recomendaciones de compra/venta. Enfócate en lectura y riesgos para negociación/margen.
- Máxima claridad y brevedad.

Estilo de salida:
- titulo: 1 línea, máximo 12 palabras.
- resumen: 2–3 líneas máximo, lenguaje natural.
- puntos_clave: 3–4 bullets. Cada bullet inicia con un emoji:
  ✅ (dato fuerte) / ⚠️ (alerta) / 📌 (contexto).
- riesgos: 1–2 bullets (qué puede salir mal o qué vigilar).
- confianza: Baja/Media/Alta.`

// BuildCommentPrompt assembles the system and user messages for the
// commentary call. The user message carries the raw snapshot plus internal
// guidance notes the model should paraphrase, never quote.
func BuildCommentPrompt(snap *Snapshot) (system, user string, err error) {
	core, nuance := InferSignalNarrative(snap)
	goldLine, goldDetails := InferGoldNarrative(snap)

	notes := map[string]any{
		"model_reading": core,
		"bullets_hint":  nuance,
		"gold_hint":     goldLine,
		"gold_numbers":  goldDetails,
		"macro_numbers": map[string]string{
			"vix":        fmtNum(snap.Macro.VIX, 2),
			"dxy":        fmtNum(snap.Macro.DXY, 3),
			"y10":        fmtNum(snap.Macro.Y10, 3),
			"vix_regime": strOrNA(snap.Macro.VIXRegime),
		},
	}

	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	notesJSON, err := json.Marshal(notes)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal prompt notes: %w", err)
	}

	user = fmt.Sprintf(`Genera el comentario para gerencia usando SOLO este snapshot JSON.
Piensa con todos los indicadores, pero escribe SIMPLE y corto.

Snapshot:
%s

Notas internas (para guiar tu redacción, no jerga):
%s`, snapJSON, notesJSON)

	return systemPrompt, user, nil
}
