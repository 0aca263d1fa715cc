package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean_NormalizaFormasUnicode(t *testing.T) {
	// "é" precompuesto vs "e" + acento combinante: ambas formas deben quedar
	// en la misma representación.
	precompuesta := "José"
	combinante := "José"
	assert.Equal(t, Clean(precompuesta), Clean(combinante))
}

func TestClean_RecortaEspacios(t *testing.T) {
	assert.Equal(t, "Rayuela", Clean("  Rayuela \t"))
	assert.Equal(t, "", Clean("   "))
}

func TestFold_QuitaDiacriticosYBajaACaja(t *testing.T) {
	assert.Equal(t, "garcia marquez", Fold("García Márquez"))
	assert.Equal(t, "cien anos de soledad", Fold("Cien Años de Soledad"))
	// Ambas formas Unicode pliegan igual
	assert.Equal(t, Fold("José"), Fold("José"))
	assert.Equal(t, "jose", Fold("José"))
}

func TestCleanISBN(t *testing.T) {
	assert.Equal(t, "9780307474728", CleanISBN("978-0-307-47472-8"))
	assert.Equal(t, "9780307474728", CleanISBN(" 978 0307474728 "))
	assert.Equal(t, "9780307474728", CleanISBN("9780307474728"))
}
