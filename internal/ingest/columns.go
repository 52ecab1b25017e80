package ingest

import (
	"strings"

	"berthplan/internal/berth"
)

// Field names of the canonical row shape. Exported CSV uses these headers.
const (
	ColVessel      = "vessel"
	ColBerth       = "berth"
	ColTerminal    = "terminal"
	ColVoyage      = "voyage"
	ColServiceType = "service_type"
	ColStart       = "start"
	ColEnd         = "end"
	ColStartMeter  = "start_meter"
	ColEndMeter    = "end_meter"
	ColFPos        = "f_pos"
	ColEPos        = "e_pos"
	ColBP          = "bp"
	ColLOA         = "loa_m"
	ColLengthM     = "length_m"
	ColStatus      = "status"
	ColRemark      = "remark"
)

// Columns is the canonical header order used by the writer.
var Columns = []string{
	ColVessel, ColBerth, ColTerminal, ColVoyage, ColServiceType,
	ColStart, ColEnd, ColStartMeter, ColEndMeter, ColFPos, ColEPos, ColBP,
	ColLOA, ColLengthM, ColStatus, ColRemark,
}

// aliases maps accepted header spellings, lowercased, to canonical field
// names. Inner spaces in a header are matched either removed or as '_'. Korean headers are those of the port
// community site the schedules are exported from.
var aliases = map[string]string{
	"vessel": ColVessel, "vessel_name": ColVessel, "선박명": ColVessel,
	"berth": ColBerth, "선석": ColBerth,
	"terminal": ColTerminal,
	"voyage": ColVoyage, "모선항차": ColVoyage,
	"service_type": ColServiceType, "stype": ColServiceType, "구분": ColServiceType,
	"start": ColStart, "eta": ColStart, "입항예정일시": ColStart,
	"end": ColEnd, "etd": ColEnd, "출항일시": ColEnd, "작업완료일시": ColEnd,
	"start_meter": ColStartMeter, "startmeter": ColStartMeter,
	"end_meter": ColEndMeter, "endmeter": ColEndMeter,
	"f_pos": ColFPos, "f": ColFPos,
	"e_pos": ColEPos, "e": ColEPos,
	"bp": ColBP,
	"loa_m": ColLOA, "loa": ColLOA, "length(m)": ColLOA,
	"length_m": ColLengthM,
	"status": ColStatus, "plan_status": ColStatus, "접안": ColStatus,
	"remark": ColRemark, "note": ColRemark, "검역": ColRemark,
}

// canonicalColumn resolves a raw header to a canonical field name.
func canonicalColumn(header string) (string, bool) {
	words := strings.Fields(strings.ToLower(strings.TrimPrefix(header, "\ufeff")))
	for _, key := range []string{strings.Join(words, ""), strings.Join(words, "_")} {
		if name, ok := aliases[key]; ok {
			return name, true
		}
	}
	return "", false
}

// setField stores value into the row field named by col.
func setField(r *berth.Row, col, value string) {
	switch col {
	case ColVessel:
		r.Vessel = value
	case ColBerth:
		r.Berth = value
	case ColTerminal:
		r.Terminal = value
	case ColVoyage:
		r.Voyage = value
	case ColServiceType:
		r.ServiceType = value
	case ColStart:
		r.Start = value
	case ColEnd:
		r.End = value
	case ColStartMeter:
		r.StartMeter = value
	case ColEndMeter:
		r.EndMeter = value
	case ColFPos:
		r.FPos = value
	case ColEPos:
		r.EPos = value
	case ColBP:
		r.BP = value
	case ColLOA:
		r.LOA = value
	case ColLengthM:
		r.LengthM = value
	case ColStatus:
		r.Status = value
	case ColRemark:
		r.Remark = value
	}
}
