package validation

import (
	"regexp"
	"strings"
	"unicode"
)

// Errors collects field-level validation failures as field -> messages,
// rendered verbatim in the response envelope.
type Errors map[string][]string

func (e Errors) Add(campo, mensaje string) {
	e[campo] = append(e[campo], mensaje)
}

func (e Errors) Empty() bool { return len(e) == 0 }

func (e Errors) Error() string {
	var parts []string
	for campo, mensajes := range e {
		for _, m := range mensajes {
			parts = append(parts, campo+": "+m)
		}
	}
	return strings.Join(parts, "; ")
}

var (
	emailRx         = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	telefonoStripRx = regexp.MustCompile(`[\s\-\+]`)
	telefonoLocalRx = regexp.MustCompile(`^\d{8}$`)
	telefonoPaisRx  = regexp.MustCompile(`^502\d{8}$`)
)

func EmailValido(email string) bool {
	return emailRx.MatchString(email)
}

// TelefonoGuatemalaValido accepts local 8-digit numbers or the 502 country
// prefix form, ignoring spaces, dashes and a leading plus.
func TelefonoGuatemalaValido(telefono string) bool {
	limpio := telefonoStripRx.ReplaceAllString(telefono, "")
	return telefonoLocalRx.MatchString(limpio) || telefonoPaisRx.MatchString(limpio)
}

// Guatemala bounding box.
const (
	LatitudMin  = 13.0
	LatitudMax  = 18.0
	LongitudMin = -93.0
	LongitudMax = -88.0
)

// ValidarCoordenadas enforces the paired-coordinates rule and the country
// bounding box.
func ValidarCoordenadas(latitud, longitud *float64, errs Errors) {
	if (latitud != nil && longitud == nil) || (latitud == nil && longitud != nil) {
		errs.Add("coordenadas", "Debe proporcionar tanto latitud como longitud, o ninguna.")
		return
	}
	if latitud != nil && (*latitud < LatitudMin || *latitud > LatitudMax) {
		errs.Add("latitud", "La latitud debe estar en el rango de Guatemala (13.0 - 18.0).")
	}
	if longitud != nil && (*longitud < LongitudMin || *longitud > LongitudMax) {
		errs.Add("longitud", "La longitud debe estar en el rango de Guatemala (-93.0 - -88.0).")
	}
}

// PasswordFuerte: at least 8 characters, one letter and one digit.
func PasswordFuerte(password string) []string {
	var mensajes []string
	if len(password) < 8 {
		mensajes = append(mensajes, "La contraseña debe tener al menos 8 caracteres.")
	}
	tieneLetra, tieneDigito := false, false
	for _, r := range password {
		if unicode.IsLetter(r) {
			tieneLetra = true
		}
		if unicode.IsDigit(r) {
			tieneDigito = true
		}
	}
	if !tieneLetra {
		mensajes = append(mensajes, "La contraseña debe contener al menos una letra.")
	}
	if !tieneDigito {
		mensajes = append(mensajes, "La contraseña debe contener al menos un número.")
	}
	return mensajes
}

// Titulo trims and title-cases a name ("juan pérez" -> "Juan Pérez").
func Titulo(s string) string {
	palabras := strings.Fields(strings.TrimSpace(s))
	for i, p := range palabras {
		runes := []rune(strings.ToLower(p))
		runes[0] = unicode.ToUpper(runes[0])
		palabras[i] = string(runes)
	}
	return strings.Join(palabras, " ")
}
