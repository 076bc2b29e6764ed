package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		name    string
		vintage int
		want    string
	}{
		{"Château Les Œillets Rouge", 2019, "chateau-les-oeillets-rouge-2019"},
		{"  Crémant d'Alsace — Brut  ", 0, "cremant-d-alsace-brut"},
		{"Cuvée Prestige 2018", 2018, "cuvee-prestige-2018"},
		{"Rosé!!!   de   Provence", 2022, "rose-de-provence-2022"},
		{"Cœur de Lion", -1, "coeur-de-lion"},
		{"", 2020, "2020"},
		{"---", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateSlug(tt.name, tt.vintage))
		})
	}
}

func TestGenerateSlugIdempotent(t *testing.T) {
	names := []string{"Pinot Noir Vieilles Vignes", "Gewürztraminer Grand Cru", "L'Ætherée", "2015"}
	for _, n := range names {
		for _, v := range []int{0, 2015, 2021} {
			once := GenerateSlug(n, v)
			assert.Equal(t, once, GenerateSlug(once, v), "name=%q vintage=%d", n, v)
		}
	}
}

func TestNormalizeImageURL(t *testing.T) {
	const base = "https://vendor.example.com/catalogue/"
	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"//cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"http://cdn.example.com/a.jpg?w=300&h=200", "https://cdn.example.com/a.jpg"},
		{"https://cdn.example.com/a.jpg?v=3&width=80&fit=crop", "https://cdn.example.com/a.jpg?v=3"},
		{"/media/b.png", "https://vendor.example.com/media/b.png"},
		{"img/c.webp", "https://vendor.example.com/catalogue/img/c.webp"},
		{"ftp://files.example.com/d.jpg", ""},
		{"https://cdn.example.com/e.jpg#zoom", "https://cdn.example.com/e.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeImageURL(tt.raw, base))
		})
	}

	assert.Equal(t, "", NormalizeImageURL("relative.jpg", ""))
}
