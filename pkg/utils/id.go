package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

// alfabeto sem caracteres ambíguos em nomes de arquivo
const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

const (
	snapshotIDSize = 10
	reportIDSize   = 12
)

// SnapshotID gera o identificador de um snapshot de métrica
func SnapshotID() (string, error) {
	return gonanoid.Generate(idAlphabet, snapshotIDSize)
}

// ReportID gera o sufixo usado nos nomes de arquivos exportados
func ReportID() (string, error) {
	return gonanoid.Generate(idAlphabet, reportIDSize)
}
