package cw

import "unicode"

// jcuken maps the keys of a US QWERTY keyboard to the letters printed on the
// same keys of a Russian JCUKEN keyboard, so answers can be typed without
// switching the system layout.
var jcuken = map[rune]rune{
	'Q': 'Й', 'W': 'Ц', 'E': 'У', 'R': 'К', 'T': 'Е', 'Y': 'Н',
	'U': 'Г', 'I': 'Ш', 'O': 'Щ', 'P': 'З', '[': 'Х', ']': 'Ъ',
	'A': 'Ф', 'S': 'Ы', 'D': 'В', 'F': 'А', 'G': 'П', 'H': 'Р',
	'J': 'О', 'K': 'Л', 'L': 'Д', ';': 'Ж', '\'': 'Э',
	'Z': 'Я', 'X': 'Ч', 'C': 'С', 'V': 'М', 'B': 'И', 'N': 'Т',
	'M': 'Ь', ',': 'Б', '.': 'Ю',
	'0': '0', '1': '1', '2': '2', '3': '3', '4': '4',
	'5': '5', '6': '6', '7': '7', '8': '8', '9': '9',
}

// TranslateKey returns the JCUKEN character on the same physical key as r.
// Lowercase Latin letters are accepted.
func TranslateKey(r rune) (rune, bool) {
	t, ok := jcuken[unicode.ToUpper(r)]
	return t, ok
}
