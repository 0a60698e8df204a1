package report

import (
	"strconv"

	"vigilance-service/internal/domain/checklist"
)

type rgb struct{ r, g, b int }

var (
	colorGood    = rgb{22, 163, 74}
	colorRegular = rgb{217, 119, 6}
	colorRepair  = rgb{220, 38, 38}
	colorNeutral = rgb{107, 114, 128}

	colorHeading = rgb{31, 58, 104}
	colorRule    = rgb{209, 213, 219}
	colorMuted   = rgb{75, 85, 99}
)

var componentLabels = map[checklist.ComponentKey]string{
	checklist.Tires:      "Pneus",
	checklist.Brakes:     "Freios",
	checklist.EngineOil:  "Óleo do motor",
	checklist.Coolant:    "Arrefecimento",
	checklist.Lights:     "Luzes",
	checklist.Electrical: "Sistema elétrico",
	checklist.Suspension: "Suspensão",
	checklist.Cleaning:   "Limpeza",
	checklist.Leaks:      "Vazamentos",
}

var categoryLabels = map[checklist.PhotoCategory]string{
	checklist.CategoryFront:      "Frente",
	checklist.CategoryBack:       "Traseira",
	checklist.CategoryLeft:       "Lateral esquerda",
	checklist.CategoryRight:      "Lateral direita",
	checklist.CategoryAdditional: "Adicional",
}

// statusBadge returns the badge text and color for a component status.
func statusBadge(s checklist.ComponentStatus) (string, rgb) {
	switch s {
	case checklist.StatusGood:
		return "Bom", colorGood
	case checklist.StatusRegular:
		return "Regular", colorRegular
	case checklist.StatusNeedsRepair:
		return "Precisa reparo", colorRepair
	case checklist.StatusNA:
		return "N/A", colorNeutral
	default:
		return "Não verificado", colorNeutral
	}
}

func componentLabel(k checklist.ComponentKey) string {
	if l, ok := componentLabels[k]; ok {
		return l
	}
	return string(k)
}

func typeLabel(t checklist.InspectionType) string {
	switch t {
	case checklist.TypeStart:
		return "Início de turno"
	case checklist.TypeEnd:
		return "Fim de turno"
	default:
		return string(t)
	}
}

// photoLabel names the i-th photo (0-based); unknown categories fall back to position.
func photoLabel(p checklist.Photo, i int) string {
	if l, ok := categoryLabels[p.Category]; ok {
		return l
	}
	return "Foto " + strconv.Itoa(i+1)
}
