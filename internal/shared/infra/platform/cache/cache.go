package cache

import (
	"context"
	"time"
)

// Cache define la interfaz para una caché de clave-valor con TTL.
// No hay política de expulsión más allá del TTL: sin límite de capacidad ni LRU.
type Cache interface {
	// Get intenta poblar 'dest' (que debe ser un puntero) con el valor asociado a la 'key'.
	// Devuelve (true, nil) si hay un 'hit' y 'dest' fue rellenado.
	// Devuelve (false, nil) si es un 'miss' o la entrada expiró; una entrada
	// expirada se elimina como efecto secundario de la lectura.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set serializa y guarda el valor con su TTL, sobrescribiendo cualquier entrada previa.
	Set(ctx context.Context, key string, val interface{}, ttl time.Duration) error

	// Delete elimina la 'key' de la caché.
	Delete(ctx context.Context, key string) error

	// Clear elimina todas las entradas.
	Clear(ctx context.Context) error
}
