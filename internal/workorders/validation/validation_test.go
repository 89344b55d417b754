package validation

import (
	"reflect"
	"testing"

	"inspection_portal_backend/internal/workorders/domain"
)

func spec(name, label string, ft domain.FieldType, required bool) domain.FieldSpec {
	return domain.FieldSpec{Name: name, Label: label, Type: ft, Required: required}
}

func TestMissingFields(t *testing.T) {
	specs := []domain.FieldSpec{
		spec("roof_state", "Roof state", domain.FieldTypeText, true),
		spec("unit_count", "Unit count", domain.FieldTypeNumber, true),
		spec("has_elevator", "Has elevator", domain.FieldTypeBoolean, true),
		spec("inspection_date", "Inspection date", domain.FieldTypeDate, true),
		spec("remarks", "Remarks", domain.FieldTypeText, false),
		spec("facade_photos", "Facade photos", domain.FieldTypeFile, true),
	}

	var values domain.ValueMap
	values.Set("roof_state", domain.StringValue("   "))
	values.Set("unit_count", domain.NumberValue(0))
	values.Set("has_elevator", domain.BoolValue(false))

	got := MissingFields(specs, values)

	// Whitespace counts as missing, zero and false do not. The optional field
	// and the file field never appear. Order follows the field definitions.
	want := []string{"Roof state", "Inspection date"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MissingFields = %v, want %v", got, want)
	}
}

func TestMissingFieldsAllPresent(t *testing.T) {
	specs := []domain.FieldSpec{
		spec("roof_state", "Roof state", domain.FieldTypeText, true),
	}
	var values domain.ValueMap
	values.Set("roof_state", domain.StringValue("good"))

	if got := MissingFields(specs, values); len(got) != 0 {
		t.Errorf("MissingFields = %v, want empty", got)
	}
}

func TestMissingFieldsLabelFallsBackToName(t *testing.T) {
	specs := []domain.FieldSpec{
		spec("roof_state", "", domain.FieldTypeText, true),
	}

	got := MissingFields(specs, domain.NewValueMap())
	want := []string{"roof_state"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MissingFields = %v, want %v", got, want)
	}
}

func TestMissingRecompiledIgnoresRequiredFlag(t *testing.T) {
	recompile := []domain.FieldSpec{
		spec("remarks", "Remarks", domain.FieldTypeText, false),
		spec("unit_count", "Unit count", domain.FieldTypeNumber, true),
		spec("facade_photos", "Facade photos", domain.FieldTypeFile, true),
	}

	var values domain.ValueMap
	values.Set("unit_count", domain.NumberValue(9))

	// Even optional fields must be re-entered once flagged for recompilation;
	// file fields stay out of scope.
	got := MissingRecompiled(recompile, values)
	want := []string{"Remarks"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MissingRecompiled = %v, want %v", got, want)
	}
}

func TestMissingNewFields(t *testing.T) {
	newFields := []domain.FieldSpec{
		spec("boiler_year", "Boiler year", domain.FieldTypeNumber, true),
		spec("extra_notes", "Extra notes", domain.FieldTypeText, false),
		spec("boiler_photos", "Boiler photos", domain.FieldTypeFile, true),
	}

	got := MissingNewFields(newFields, domain.NewValueMap())
	want := []string{"Boiler year"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MissingNewFields = %v, want %v", got, want)
	}
}
