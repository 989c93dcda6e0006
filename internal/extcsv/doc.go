// Package extcsv reads WOUDC extended CSV files.
//
// An extended CSV file is a sequence of tables. A line holding only "#NAME"
// starts table NAME, the next line is its header and the lines after that
// are data rows up to the next table. Lines starting with "*" are comments.
//
//	#CONTENT
//	Class,Category,Level,Form
//	WOUDC,OzoneSonde,1.0,1
//
//	#PROFILE
//	Pressure,O3PartialPressure,Temperature
//	1013.2,2.1,15.3
//
// Parse keeps every occurrence of a repeated table. File.Candidate turns a
// parsed file into the structure the validator checks.
package extcsv
