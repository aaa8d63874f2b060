// Package iocli ввод и вывод интерактивных команд клиента.
package iocli

// IO ввод и вывод команды
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
}
