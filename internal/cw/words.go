package cw

import "slices"

// words is the fixed practice list for words mode. Letters missing from the
// alphabet are skipped during playback.
var words = []string{
	"СОС", "МАМА", "ПАПА", "ДОМ", "КІТ", "СОБАКА", "МОРЕ", "СОНЦЕ", "ВОДА",
	"ЗЕМЛЯ", "НЕБО", "ДЕРЕВО", "КВІТКА", "ПТАХ", "РИБА", "АВТО", "ПОЇЗД",
	"ЛІТАК", "КОРАБЕЛЬ", "МІСТО", "СЕЛО", "ШКОЛА", "УЧИТЕЛЬ", "УЧЕНЬ", "КНИГА",
	"ОЛІВЕЦЬ", "СТІЛ", "СТІЛЕЦЬ", "ВІКНО", "ДВЕРІ", "СТІНА", "ПІДЛОГА", "СТЕЛЯ",
	"ЛЮСТРА", "ЛАМПА",
}

// Words returns a copy of the practice word list.
func Words() []string {
	return slices.Clone(words)
}
