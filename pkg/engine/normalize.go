package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode selects the input handling policy: strict rejects invalid input
// with per-field errors, lenient clamps or defaults and never rejects.
type Mode int

const (
	ModeStrict Mode = iota
	ModeLenient
)

// Lenient-mode defaults used when a field is missing or unparseable.
const (
	DefaultAge           = 50
	DefaultSex           = SexMale
	DefaultChestPainType = ChestPainAsymptomatic
	DefaultRestingBP     = 120
	DefaultCholesterol   = 200
	DefaultRestingECG    = ECGNormal
	DefaultMaxHeartRate  = 150
	DefaultSTDepression  = 0.0
	DefaultSTSlope       = SlopeFlat
)

// RawRecord holds unparsed field values as received from a form, CSV
// cell, or query parameter. Empty string means the field is absent.
type RawRecord struct {
	ID                    string
	Age                   string
	Sex                   string
	ChestPainType         string
	RestingBP             string
	Cholesterol           string
	FastingBloodSugarHigh string
	RestingECG            string
	MaxHeartRate          string
	ExerciseAngina        string
	STDepression          string
	STSlope               string
}

// ValidationErrors maps field names to validation messages. It is only
// returned in strict mode.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}

// Normalize converts a raw record into a canonical PatientRecord.
//
// In strict mode any missing, unparseable, or out-of-range field is
// reported in the returned ValidationErrors and no record is produced.
// In lenient mode the record is always produced: numeric fields are
// clamped to their nearest bound, missing or unrecognized values fall
// back to the documented defaults, and no error is ever returned.
//
// The returned warnings report every lenient substitution and clamp so
// the caller can surface what was changed; strict mode returns none.
// Clinical advisories are a separate concern, see Advisories.
func Normalize(raw RawRecord, mode Mode) (*PatientRecord, []string, error) {
	errs := ValidationErrors{}
	warns := []string{}
	rec := &PatientRecord{}

	rec.ID = strings.TrimSpace(raw.ID)
	if mode == ModeStrict && !ValidID(rec.ID) {
		errs["id"] = "must be 1-50 alphanumeric, hyphen, or underscore characters"
	}

	rec.Age = normalizeInt(raw.Age, "age", AgeMin, AgeMax, DefaultAge, mode, errs, &warns)
	rec.RestingBP = normalizeInt(raw.RestingBP, "restingBP", RestingBPMin, RestingBPMax, DefaultRestingBP, mode, errs, &warns)
	rec.Cholesterol = normalizeInt(raw.Cholesterol, "cholesterol", CholesterolMin, CholesterolMax, DefaultCholesterol, mode, errs, &warns)
	rec.MaxHeartRate = normalizeInt(raw.MaxHeartRate, "maxHeartRate", MaxHeartRateMin, MaxHeartRateMax, DefaultMaxHeartRate, mode, errs, &warns)
	rec.STDepression = normalizeFloat(raw.STDepression, "stDepression", STDepressionMin, STDepressionMax, DefaultSTDepression, mode, errs, &warns)

	if sex, err := ParseSex(raw.Sex); err == nil {
		rec.Sex = sex
	} else if mode == ModeStrict {
		errs["sex"] = fieldError(raw.Sex, "must be male or female")
	} else {
		rec.Sex = DefaultSex
		warns = append(warns, substitutionWarning("sex", raw.Sex, string(DefaultSex)))
	}

	if cp, err := ParseChestPainType(raw.ChestPainType); err == nil {
		rec.ChestPainType = cp
	} else if mode == ModeStrict {
		errs["chestPainType"] = fieldError(raw.ChestPainType, "must be typical_angina, atypical_angina, non_anginal, or asymptomatic")
	} else {
		rec.ChestPainType = DefaultChestPainType
		warns = append(warns, substitutionWarning("chestPainType", raw.ChestPainType, string(DefaultChestPainType)))
	}

	if ecg, err := ParseRestingECG(raw.RestingECG); err == nil {
		rec.RestingECG = ecg
	} else if mode == ModeStrict {
		errs["restingECG"] = fieldError(raw.RestingECG, "must be normal, lv_hypertrophy, or st_t_abnormality")
	} else {
		rec.RestingECG = DefaultRestingECG
		warns = append(warns, substitutionWarning("restingECG", raw.RestingECG, string(DefaultRestingECG)))
	}

	if slope, err := ParseSTSlope(raw.STSlope); err == nil {
		rec.STSlope = slope
	} else if mode == ModeStrict {
		errs["stSlope"] = fieldError(raw.STSlope, "must be upsloping, flat, or downsloping")
	} else {
		rec.STSlope = DefaultSTSlope
		warns = append(warns, substitutionWarning("stSlope", raw.STSlope, string(DefaultSTSlope)))
	}

	if b, err := ParseBool(raw.FastingBloodSugarHigh); err == nil {
		rec.FastingBloodSugarHigh = b
	} else if mode == ModeStrict {
		errs["fastingBloodSugarHigh"] = fieldError(raw.FastingBloodSugarHigh, "must be true or false")
	} else {
		warns = append(warns, substitutionWarning("fastingBloodSugarHigh", raw.FastingBloodSugarHigh, "false"))
	}

	if b, err := ParseBool(raw.ExerciseAngina); err == nil {
		rec.ExerciseAngina = b
	} else if mode == ModeStrict {
		errs["exerciseAngina"] = fieldError(raw.ExerciseAngina, "must be true or false")
	} else {
		warns = append(warns, substitutionWarning("exerciseAngina", raw.ExerciseAngina, "false"))
	}

	if len(errs) > 0 {
		return nil, nil, errs
	}

	return rec, warns, nil
}

func normalizeInt(raw, field string, min, max, def int, mode Mode, errs ValidationErrors, warns *[]string) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		if mode == ModeStrict {
			errs[field] = fieldError(raw, "must be a whole number")
			return 0
		}
		// CSV numeric cells sometimes carry a trailing decimal (e.g. "54.0").
		if f, ferr := strconv.ParseFloat(strings.TrimSpace(raw), 64); ferr == nil {
			v = int(f)
		} else {
			*warns = append(*warns, substitutionWarning(field, raw, strconv.Itoa(def)))
			return def
		}
	}
	if v < min || v > max {
		if mode == ModeStrict {
			errs[field] = fmt.Sprintf("%d is out of range [%d, %d]", v, min, max)
			return 0
		}
		c := clampInt(v, min, max)
		*warns = append(*warns, fmt.Sprintf("%s %d is out of range, clamped to %d", field, v, c))
		return c
	}
	return v
}

func normalizeFloat(raw, field string, min, max, def float64, mode Mode, errs ValidationErrors, warns *[]string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		if mode == ModeStrict {
			errs[field] = fieldError(raw, "must be a number")
			return 0
		}
		*warns = append(*warns, substitutionWarning(field, raw, strconv.FormatFloat(def, 'g', -1, 64)))
		return def
	}
	if v < min || v > max {
		if mode == ModeStrict {
			errs[field] = fmt.Sprintf("%g is out of range [%g, %g]", v, min, max)
			return 0
		}
		c := clampFloat(v, min, max)
		*warns = append(*warns, fmt.Sprintf("%s %g is out of range, clamped to %g", field, v, c))
		return c
	}
	return v
}

func substitutionWarning(field, raw, def string) string {
	if strings.TrimSpace(raw) == "" {
		return fmt.Sprintf("%s is missing, using default %s", field, def)
	}
	return fmt.Sprintf("%s value %q is not recognized, using default %s", field, raw, def)
}

func fieldError(raw, hint string) string {
	if strings.TrimSpace(raw) == "" {
		return "required"
	}
	return hint
}

func normalizeToken(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
