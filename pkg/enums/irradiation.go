package enums

import (
	"database/sql/driver"
	"fmt"
)

// Irradiation is tri-state. IrradiationUnknown is stored as NULL.
type Irradiation string

const (
	IrradiationUnknown       Irradiation = ""
	IrradiationIrradiated    Irradiation = "irradiated"
	IrradiationNotIrradiated Irradiation = "not_irradiated"
)

// IrradiationFromFlag maps the upstream boolean flag. Anything that is not a
// JSON boolean is unknown.
func IrradiationFromFlag(v any) Irradiation {
	flag, ok := v.(bool)
	if !ok {
		return IrradiationUnknown
	}
	if flag {
		return IrradiationIrradiated
	}
	return IrradiationNotIrradiated
}

// String implements fmt.Stringer.
func (i Irradiation) String() string {
	if i == IrradiationUnknown {
		return "unknown"
	}
	return string(i)
}

// IsValid reports whether the value is one of the three states.
func (i Irradiation) IsValid() bool {
	switch i {
	case IrradiationUnknown, IrradiationIrradiated, IrradiationNotIrradiated:
		return true
	}
	return false
}

// Value implements driver.Valuer.
func (i Irradiation) Value() (driver.Value, error) {
	if i == IrradiationUnknown {
		return nil, nil
	}
	if !i.IsValid() {
		return nil, fmt.Errorf("invalid irradiation %q", string(i))
	}
	return string(i), nil
}

// Scan implements sql.Scanner.
func (i *Irradiation) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*i = IrradiationUnknown
	case string:
		*i = Irradiation(v)
	case []byte:
		*i = Irradiation(v)
	default:
		return fmt.Errorf("irradiation: unsupported scan type %T", value)
	}
	if !i.IsValid() {
		return fmt.Errorf("invalid irradiation %q", string(*i))
	}
	return nil
}
