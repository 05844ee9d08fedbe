package messaging

import (
	"reflect"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"+55 (11) 99999-9999": "5511999999999",
		"5511999999999":       "5511999999999",
		"":                    "",
		"abc":                 "",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPhoneVariantsBrazilMobile(t *testing.T) {
	got := PhoneVariants("5511999999999")
	want := []string{
		"5511999999999",
		"+5511999999999",
		"551199999999",
		"+551199999999",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PhoneVariants = %v, want %v", got, want)
	}
}

func TestPhoneVariantsBrazilWithoutNinthDigit(t *testing.T) {
	got := PhoneVariants("551199999999")
	want := []string{
		"551199999999",
		"+551199999999",
		"5511999999999",
		"+5511999999999",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PhoneVariants = %v, want %v", got, want)
	}
}

func TestPhoneVariantsNonBrazil(t *testing.T) {
	got := PhoneVariants("+1 555 000 1111")
	want := []string{"15550001111", "+15550001111"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PhoneVariants = %v, want %v", got, want)
	}
}

func TestPhoneVariantsEmpty(t *testing.T) {
	if got := PhoneVariants("   "); got != nil {
		t.Errorf("expected nil variants for blank input, got %v", got)
	}
}
