package athlete

import "testing"

func TestNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "last name upper case is moved to the end", in: "DOE Jane", want: "jane doe"},
		{name: "plain order is kept", in: "Jane Doe", want: "jane doe"},
		{name: "multi token surname", in: "HOESFLOT KLAEBO Johannes", want: "johannes hoesflot klaebo"},
		{name: "transliteration table", in: "Klæbo Østberg", want: "klaebo oestberg"},
		{name: "umlauts spelled out", in: "KÄLIN Nadja", want: "nadja kaelin"},
		{name: "remaining diacritics stripped", in: "Teresa Stadlober Bohuslav Čepický", want: "teresa stadlober bohuslav cepicky"},
		{name: "comma form", in: "Diggins, Jessie", want: "jessie diggins"},
		{name: "whitespace and hyphen", in: "  Anne-Kjersti   Kalvaa ", want: "anne kjersti kalvaa"},
		{name: "single token", in: "Fabiana", want: "fabiana"},
		{name: "all upper stays in order", in: "JANE DOE", want: "jane doe"},
		{name: "initials are not surnames", in: "J. DOE", want: "j doe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Normalize(tt.in); got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizer_Aliases(t *testing.T) {
	n := NewNormalizer(WithAliases(map[string]string{
		"BOLSHUNOV Alexander": "Aleksandr Bolshunov",
	}))

	want := "aleksandr bolshunov"
	if got := n.Normalize("Alexander Bolshunov"); got != want {
		t.Fatalf("alias not applied: got %q want %q", got, want)
	}
	if got := n.Normalize("BOLSHUNOV Alexander"); got != want {
		t.Fatalf("alias not applied to reordered input: got %q want %q", got, want)
	}
	if got := n.Normalize("Alexandr Bolshunov"); got != "alexandr bolshunov" {
		t.Fatalf("alias lookup must be exact, got %q", got)
	}
}

func TestNormalizer_LastNameFirst(t *testing.T) {
	n := NewNormalizer(WithLastNameFirst())
	if got := n.Normalize("Doe Jane"); got != "jane doe" {
		t.Fatalf("expected forced reorder, got %q", got)
	}
}

func TestNormalizer_Display(t *testing.T) {
	n := NewNormalizer()
	if got := n.Display("NISKANEN Kerttu"); got != "Kerttu Niskanen" {
		t.Fatalf("unexpected display name %q", got)
	}
	if got := n.Display("VON DER LEYEN-SMITH Anna"); got != "Anna Von Der Leyen-Smith" {
		t.Fatalf("unexpected display name %q", got)
	}
}
