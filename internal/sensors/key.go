package sensors

import "strings"

var keyReplacer = strings.NewReplacer(" ", "_", "-", "_")

// MetricKey builds the column name of one reading:
// <chip short name>_<sensor>_<reading>, with every space and hyphen turned
// into an underscore. Unregistered chips fall back to SynthesizeShortName.
func (r *Registry) MetricKey(chip, sensor, reading string) string {
	shortName, ok := r.ShortName(chip)
	if !ok {
		shortName = SynthesizeShortName(chip)
	}

	return keyReplacer.Replace(shortName + "_" + sensor + "_" + reading)
}
