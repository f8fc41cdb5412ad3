package entity

import "fmt"

func formatInvoiceNumber(pos int, number int64) string {
	return fmt.Sprintf("%04d-%08d", pos, number)
}
