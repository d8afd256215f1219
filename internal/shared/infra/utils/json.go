package utils

import (
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// JSON es el codec compartido. Compatible con encoding/json y con las claves
// de los mapas ordenadas, lo que hace la salida determinista.
var JSON = jsoniter.ConfigCompatibleWithStandardLibrary

func UnmarshalAndHandle[T any](log *zap.Logger, data []byte, handler func(T)) {
	var evt T
	if err := JSON.Unmarshal(data, &evt); err != nil {
		log.Warn("Failed to unmarshal event data", zap.Error(err))
		return
	}
	handler(evt)
}
