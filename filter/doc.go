// Package filter translates declarative filter, sort and pagination
// descriptions into SQL statements built with squirrel.
//
// A Filter maps field names to either a literal (equality) or an operator
// object such as {"$gte": 100, "$lt": 500}. Unknown operators fall back to
// equality and are reported through the converter's logger.
package filter
