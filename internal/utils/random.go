package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/isc-horarios/timetable/backend/internal/domain"
)

var commonSurnames = []string{
	"García", "Hernández", "López", "Martínez", "González", "Pérez", "Rodríguez", "Sánchez", "Ramírez", "Flores",
	"Cruz", "Gómez", "Morales", "Vázquez", "Jiménez", "Reyes", "Díaz", "Torres", "Gutiérrez", "Ruiz",
}
var commonGivenNames = []string{
	"José", "María", "Juan", "Guadalupe", "Luis", "Ana", "Carlos", "Rosa", "Jorge", "Patricia",
	"Miguel", "Laura", "Alejandro", "Verónica", "Ricardo", "Elena", "Fernando", "Sofía", "Iván", "Claudia",
}

// GenerateRandomTeacherName 生成一个 "名 姓 姓" 形式的随机姓名
func GenerateRandomTeacherName(rng *rand.Rand) string {
	given := commonGivenNames[rng.Intn(len(commonGivenNames))]
	first := commonSurnames[rng.Intn(len(commonSurnames))]
	second := commonSurnames[rng.Intn(len(commonSurnames))]
	return given + " " + first + " " + second
}

var digits = "0123456789"

// GenerateUsernameFromName 去掉重音后取每个词的前缀，再追加随机数字
func GenerateUsernameFromName(rng *rand.Rand, name string) string {
	username := ""
	for _, word := range strings.Fields(RemoveAccents(name)) {
		word = strings.ToLower(word)
		length := rng.Intn(len(word)) + 1
		username += word[:length]
	}

	digitsLength := rng.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rng.Intn(len(digits))])
	}

	return username
}

// RemoveAccents 把 "Martínez" 转换为 "Martinez"
func RemoveAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

var subjectNames = []string{
	"Cálculo Diferencial", "Cálculo Integral", "Álgebra Lineal", "Programación Orientada a Objetos",
	"Estructura de Datos", "Fundamentos de Bases de Datos", "Redes de Computadoras", "Sistemas Operativos",
	"Ingeniería de Software", "Ética", "Taller de Investigación", "Arquitectura de Computadoras",
	"Lenguajes y Autómatas", "Inteligencia Artificial", "Probabilidad y Estadística", "Física General",
}

// GenerateRandomSubjectNames 返回 n 个不重复的科目名，超出内置列表时追加编号
func GenerateRandomSubjectNames(rng *rand.Rand, n int) []string {
	names := make([]string, 0, n)
	perm := rng.Perm(len(subjectNames))
	for i := 0; i < n; i++ {
		name := subjectNames[perm[i%len(perm)]]
		if i >= len(subjectNames) {
			name = fmt.Sprintf("%s %d", name, i/len(subjectNames)+1)
		}
		names = append(names, name)
	}
	return names
}

// GenerateGroupName 生成如 "ISC-3B" 的班级名称
func GenerateGroupName(semester int, index int) string {
	return fmt.Sprintf("ISC-%d%c", semester, 'A'+rune(index%26))
}

// 使用 Fisher-Yates 洗牌算法来生成一个非空的随机上课日子集
func GenerateRandomDays(rng *rand.Rand) []domain.Day {
	days := append([]domain.Day{}, domain.Days...) // 复制数组，避免修改原数组

	for i := len(days) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		days[i], days[j] = days[j], days[i]
	}

	n := rng.Intn(len(days)) + 1
	return days[:n]
}

// GenerateRandomBlockRange 返回 [start, end]，长度至少为 minLength
func GenerateRandomBlockRange(rng *rand.Rand, minLength int) (int, int) {
	if minLength < 1 {
		minLength = 1
	}
	if minLength > domain.BlocksPerShift {
		minLength = domain.BlocksPerShift
	}
	start := rng.Intn(domain.BlocksPerShift-minLength+1) + 1
	end := start + minLength - 1 + rng.Intn(domain.BlocksPerShift-(start+minLength-1)+1)
	return start, end
}
