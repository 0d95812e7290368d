package calendar

// Fixed-date holiday lists. Maintained by hand; extend as new years are needed.
// Observed dates (weekend shifts) are already applied.

var nycHolidayList = []string{
	"2022-01-17", "2022-02-21", "2022-05-30", "2022-06-20", "2022-07-04",
	"2022-09-05", "2022-10-10", "2022-11-11", "2022-11-24", "2022-12-26",
	"2023-01-02", "2023-01-16", "2023-02-20", "2023-05-29", "2023-06-19",
	"2023-07-04", "2023-09-04", "2023-10-09", "2023-11-23", "2023-12-25",
	"2024-01-01", "2024-01-15", "2024-02-19", "2024-05-27", "2024-06-19",
	"2024-07-04", "2024-09-02", "2024-10-14", "2024-11-11", "2024-11-28",
	"2024-12-25",
	"2025-01-01", "2025-01-20", "2025-02-17", "2025-05-26", "2025-06-19",
	"2025-07-04", "2025-09-01", "2025-10-13", "2025-11-11", "2025-11-27",
	"2025-12-25",
}

var tgtHolidayList = []string{
	"2022-04-15", "2022-04-18", "2022-12-26",
	"2023-04-07", "2023-04-10", "2023-05-01", "2023-12-25", "2023-12-26",
	"2024-01-01", "2024-03-29", "2024-04-01", "2024-05-01", "2024-12-25",
	"2024-12-26",
	"2025-01-01", "2025-04-18", "2025-04-21", "2025-05-01", "2025-12-25",
	"2025-12-26",
}
