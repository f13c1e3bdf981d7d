package instrument

import (
	"fmt"
	"strings"
)

// Instrument identifies one PSEi 30 constituent by its short ticker.
type Instrument string

// The PSEi 30 constituents, in catalog order.
const (
	AC    Instrument = "AC"
	ACEN  Instrument = "ACEN"
	AEV   Instrument = "AEV"
	AGI   Instrument = "AGI"
	ALI   Instrument = "ALI"
	AP    Instrument = "AP"
	BDO   Instrument = "BDO"
	BLOOM Instrument = "BLOOM"
	BPI   Instrument = "BPI"
	CNPF  Instrument = "CNPF"
	DMC   Instrument = "DMC"
	EMI   Instrument = "EMI"
	GLO   Instrument = "GLO"
	GTCAP Instrument = "GTCAP"
	ICT   Instrument = "ICT"
	JFC   Instrument = "JFC"
	JGS   Instrument = "JGS"
	LTG   Instrument = "LTG"
	MBT   Instrument = "MBT"
	MER   Instrument = "MER"
	MONDE Instrument = "MONDE"
	NIKL  Instrument = "NIKL"
	PGOLD Instrument = "PGOLD"
	SCC   Instrument = "SCC"
	SM    Instrument = "SM"
	SMC   Instrument = "SMC"
	SMPH  Instrument = "SMPH"
	TEL   Instrument = "TEL"
	URC   Instrument = "URC"
	WLCON Instrument = "WLCON"
)

// exchangeSuffix qualifies a ticker for the Philippine Stock Exchange.
const exchangeSuffix = ".PS"

var all = []Instrument{
	AC, ACEN, AEV, AGI, ALI, AP, BDO, BLOOM, BPI, CNPF,
	DMC, EMI, GLO, GTCAP, ICT, JFC, JGS, LTG, MBT, MER,
	MONDE, NIKL, PGOLD, SCC, SM, SMC, SMPH, TEL, URC, WLCON,
}

var byName = func() map[string]Instrument {
	m := make(map[string]Instrument, len(all))
	for _, inst := range all {
		m[string(inst)] = inst
	}
	return m
}()

// Name returns the short ticker, e.g. "AC".
func (i Instrument) Name() string {
	return string(i)
}

// Symbol returns the exchange-qualified symbol used by quote providers, e.g. "AC.PS".
func (i Instrument) Symbol() string {
	return string(i) + exchangeSuffix
}

// String implements fmt.Stringer
func (i Instrument) String() string {
	return i.Name()
}

// Valid reports whether i belongs to the catalog.
func (i Instrument) Valid() bool {
	_, ok := byName[string(i)]
	return ok
}

// All returns the full catalog in enumeration order. The returned slice is a copy.
func All() []Instrument {
	out := make([]Instrument, len(all))
	copy(out, all)
	return out
}

// Parse resolves a ticker name ("ac", "AC") or exchange symbol ("AC.PS") to an Instrument.
func Parse(s string) (Instrument, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	name = strings.TrimSuffix(name, exchangeSuffix)

	inst, ok := byName[name]
	if !ok {
		return "", fmt.Errorf("unknown instrument %q", s)
	}
	return inst, nil
}

// Catalog enumerates the instruments for a batch run.
// With no names the full catalog is returned; otherwise the named instruments
// are returned in the order given. Unknown or repeated names are an error.
func Catalog(names []string) ([]Instrument, error) {
	if len(names) == 0 {
		return All(), nil
	}

	out := make([]Instrument, 0, len(names))
	seen := make(map[Instrument]bool, len(names))
	var unknown []string

	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		inst, err := Parse(n)
		if err != nil {
			unknown = append(unknown, n)
			continue
		}
		if seen[inst] {
			return nil, fmt.Errorf("instrument %s listed more than once", inst)
		}
		seen[inst] = true
		out = append(out, inst)
	}

	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown instruments: %s", strings.Join(unknown, ", "))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no instruments configured")
	}

	return out, nil
}
