package sensors

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	registry := DefaultRegistry()

	shortName, ok := registry.ShortName("coretemp-isa-0000")
	require.True(t, ok)
	require.Equal(t, "coretemp", shortName)

	_, ok = registry.ShortName("nvme-pci-0300")
	require.False(t, ok)

	_, err := NewRegistry(
		ChipIdentity{RawName: "coretemp-isa-0000", ShortName: "a"},
		ChipIdentity{RawName: "coretemp-isa-0000", ShortName: "b"},
	)
	require.ErrorContains(t, err, "duplicate chip identity")

	_, err = NewRegistry(ChipIdentity{RawName: "nvme-pci-0300"})
	require.Error(t, err)

	extended, err := registry.With(ChipIdentity{RawName: "nvme-pci-0300", ShortName: "nvme"})
	require.NoError(t, err)
	require.True(t, extended.Knows("nvme-pci-0300"))
	require.False(t, registry.Knows("nvme-pci-0300"))
	require.Len(t, extended.Chips(), len(registry.Chips())+1)
}

func TestMetricKey(t *testing.T) {
	registry := DefaultRegistry()

	tT := map[string]struct {
		chip, sensor, reading string
		want                  string
	}{
		"registered chip": {
			chip: "coretemp-isa-0000", sensor: "Core 0", reading: "temp2_input",
			want: "coretemp_Core_0_temp2_input",
		},
		"hyphens in sensor": {
			chip: "system76-isa-0000", sensor: "CPU-fan 1", reading: "fan1_input",
			want: "s76_CPU_fan_1_fan1_input",
		},
		"unregistered chip is synthesized": {
			chip: "nvme-pci-0300", sensor: "Composite", reading: "temp1_input",
			want: "nvme_pci_0300_Composite_temp1_input",
		},
		"raw name with spaces": {
			chip: "acpi tz-virtual-0", sensor: "temp1", reading: "temp1_input",
			want: "acpi_tz_virtual_0_temp1_temp1_input",
		},
	}

	for name, test := range tT {
		t.Run(name, func(t *testing.T) {
			key := registry.MetricKey(test.chip, test.sensor, test.reading)
			require.Equal(t, test.want, key)
			require.Equal(t, key, registry.MetricKey(test.chip, test.sensor, test.reading))
			require.NotContains(t, key, " ")
			require.NotContains(t, key, "-")
		})
	}
}

func TestExtractEndToEnd(t *testing.T) {
	raw := `coretemp-isa-0000
Adapter: ISA adapter
Core 0:
  temp1_input: 45.000
Core 1:
  temp2_input: 47.000
`

	sample, err := DefaultRegistry().Extract(raw)
	require.NoError(t, err)
	require.Equal(t, []string{"coretemp_Core_0_temp1_input", "coretemp_Core_1_temp2_input"}, sample.Keys())
	require.Equal(t, []float64{45, 47}, sample.Values())
}

func TestExtractFixture(t *testing.T) {
	sample, err := DefaultRegistry().Extract(readFixture(t, "sensors_u.txt"))
	require.NoError(t, err)

	require.Equal(t, Sample{
		{Key: "pch_temp1_temp1_input", Value: 39},
		{Key: "coretemp_Package_id_0_temp1_input", Value: 48},
		{Key: "coretemp_Core_0_temp2_input", Value: 46},
		{Key: "coretemp_Core_1_temp3_input", Value: 45},
		{Key: "s76_CPU_fan_fan1_input", Value: 2106},
		{Key: "s76_GPU_fan_fan2_input", Value: 0},
		{Key: "s76_CPU_temperature_temp1_input", Value: 47},
		{Key: "s76_GPU_temperature_temp2_input", Value: 0},
	}, sample)
}

func TestExtractUnknownChipContributesNothing(t *testing.T) {
	raw := `nvme-pci-0300
Adapter: PCI adapter
Composite:
  temp1_input: 36.850

coretemp-isa-0000
Adapter: ISA adapter
Core 0:
  temp2_input: 46.000
`

	sample, err := DefaultRegistry().Extract(raw)
	require.NoError(t, err)
	require.Equal(t, []string{"coretemp_Core_0_temp2_input"}, sample.Keys())
	for _, key := range sample.Keys() {
		require.False(t, strings.HasPrefix(key, "nvme"))
	}
}

func TestExtractStructuralFailure(t *testing.T) {
	raw := `coretemp-isa-0000
Adapter: ISA adapter
  temp1_input: 45.000
Core 0:
  temp2_input: 46.000

system76-isa-0000
Adapter: ISA adapter
CPU fan:
  fan1_input: 2106.000
`

	sample, err := DefaultRegistry().Extract(raw)
	require.ErrorIs(t, err, ErrReadingBeforeSensor)
	require.Equal(t, 1, SkippedChips(err))
	require.Equal(t, []string{"s76_CPU_fan_fan1_input"}, sample.Keys())
}

func TestBuildSampleNumericFailureDropsChip(t *testing.T) {
	chips := []SensorChip{
		{RawName: "coretemp-isa-0000", Sensors: []Sensor{
			{Name: "Core 0", Readings: []SensorReading{{Name: "temp2_input", RawValue: "46.000"}}},
			{Name: "Core 1", Readings: []SensorReading{{Name: "temp3_input", RawValue: "N/A"}}},
		}},
		{RawName: "system76-isa-0000", Sensors: []Sensor{
			{Name: "CPU fan", Readings: []SensorReading{{Name: "fan1_input", RawValue: "2106"}}},
		}},
	}

	sample, err := DefaultRegistry().BuildSample(chips)
	require.ErrorIs(t, err, strconv.ErrSyntax)
	require.Equal(t, 1, SkippedChips(err))
	require.Equal(t, Sample{{Key: "s76_CPU_fan_fan1_input", Value: 2106}}, sample)
}

func TestBuildSampleFiltersNonInputReadings(t *testing.T) {
	chips := []SensorChip{
		{RawName: "coretemp-isa-0000", Sensors: []Sensor{
			{Name: "Core 0", Readings: []SensorReading{
				{Name: "temp2_max", RawValue: "not parsed"},
				{Name: "temp2_input", RawValue: "46.5"},
				{Name: "temp2_input_alarm", RawValue: "0"},
			}},
		}},
	}

	sample, err := DefaultRegistry().BuildSample(chips)
	require.NoError(t, err)
	require.Equal(t, Sample{{Key: "coretemp_Core_0_temp2_input", Value: 46.5}}, sample)
}

func TestBuildSampleDuplicateKeys(t *testing.T) {
	chips := []SensorChip{
		{RawName: "coretemp-isa-0000", Sensors: []Sensor{
			{Name: "Core 0", Readings: []SensorReading{{Name: "temp1_input", RawValue: "1"}}},
			{Name: "Core-0", Readings: []SensorReading{{Name: "temp1_input", RawValue: "2"}}},
			{Name: "Core 0", Readings: []SensorReading{{Name: "temp1_input", RawValue: "3"}}},
		}},
	}

	sample, err := DefaultRegistry().BuildSample(chips)
	require.NoError(t, err)
	require.Equal(t, []string{
		"coretemp_Core_0_temp1_input",
		"coretemp_Core_0_temp1_input_2",
		"coretemp_Core_0_temp1_input_3",
	}, sample.Keys())

	unique := map[string]struct{}{}
	for _, key := range sample.Keys() {
		unique[key] = struct{}{}
	}
	require.Len(t, unique, len(sample))
}
