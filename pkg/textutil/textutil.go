// Package textutil normaliza texto de entrada antes de persistir o buscar.
// Los títulos y autores llegan desde clientes distintos que pueden enviar el
// mismo texto en formas Unicode diferentes (precompuesta o con combinantes);
// sin normalizar, el LIKE byte a byte de la búsqueda no los encontraría.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Clean normaliza a NFC y recorta espacios en los extremos.
func Clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Fold devuelve la forma de búsqueda de un texto: minúsculas y sin marcas
// diacríticas ("García Márquez" → "garcia marquez"). Los títulos se indexan
// plegados para que la búsqueda no dependa de cómo tipeó los acentos el
// cliente.
func Fold(s string) string {
	// La cadena de transformers tiene estado interno: se arma por llamada.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return strings.ToLower(out)
}

// CleanISBN normaliza un ISBN: quita guiones y espacios internos.
// No valida el dígito verificador; solo canoniza la representación.
func CleanISBN(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '-' || r == ' ' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
