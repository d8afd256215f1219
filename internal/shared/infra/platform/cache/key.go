package cache

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// keyJSON conserva los números tal cual (sin pasar por float64) y ordena las claves.
var keyJSON = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// BuildKey forma una key canónica "<kind>:<json>" a partir de los parámetros.
// Los parámetros se serializan, se decodifican a mapas genéricos y se vuelven
// a serializar con las claves ordenadas: dos peticiones lógicamente iguales
// producen siempre la misma key, sin importar el orden de los campos.
func BuildKey(kind string, params interface{}) (string, error) {
	raw, err := keyJSON.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("cache key %s: %w", kind, err)
	}

	var generic interface{}
	if err := keyJSON.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("cache key %s: %w", kind, err)
	}

	canonical, err := keyJSON.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("cache key %s: %w", kind, err)
	}
	return kind + ":" + string(canonical), nil
}
