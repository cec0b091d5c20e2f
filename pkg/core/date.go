package core

// Dates pack year, month, and day into the cell payload as y<<16|mo<<8|d.

// InitDate makes c a date. Month is 1 to 12, day 1 to 31.
func InitDate(c *Cell, year, month, day int) {
	*c = Cell{kind: KindDate, n: int64(year)<<16 | int64(month)<<8 | int64(day)}
}

// DateParts splits a date cell back into year, month, day.
func DateParts(v *Cell) (year, month, day int) {
	return int(v.n >> 16), int(v.n>>8) & 0xff, int(v.n) & 0xff
}

var monthDays = [12]int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// ValidDate reports whether the parts name a representable calendar day.
// February 29 is accepted only in leap years.
func ValidDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 || day > monthDays[month-1] {
		return false
	}
	if month == 2 && day == 29 {
		leap := year%4 == 0 && (year%100 != 0 || year%400 == 0)
		return leap
	}
	return true
}
