package query

import (
	"fmt"
	"strings"
)

// Clauses for the conference catalog schema.

func ConferenceFields() Fields {
	return NewFields(
		"conference", "parent", "name", "abbreviation", "description",
		"permanentURL AS url", "`meeting-type` AS type_id", "tags",
	)
}

func EventFields() Fields {
	return NewFields(
		"instance",
		"url", "conference", "abbreviation", "Conferences.name AS name",
		"startDate", "endDate",
		"deadline", "extendedDeadline", "posterDeadline",
		"Locations.location AS location_id",
		"Locations.name AS location",
		"Regions.name AS region",
		"Regions.code AS regionCode",
		"Countries.code AS country",
		"proceedings", "Conferences.permanentURL AS conf_url",
	)
}

func LocationFields() Fields {
	return NewFields(
		"Locations.location AS location_id",
		"Locations.name AS location",
		"Regions.name AS region",
		"Regions.code AS regionCode",
		"Countries.code AS country",
	)
}

func MeetingTypeFields() Fields {
	return NewFields("`meeting-type` AS type_id", "name")
}

func TagFields() Fields {
	return NewFields("tag", "name")
}

func ConferenceTable() Tables {
	return From("Conferences")
}

func EventTables() Tables {
	return From(`ConferenceInstances
		INNER JOIN Conferences USING (conference)
		INNER JOIN Locations USING (location)
		LEFT JOIN Regions USING (region)
		INNER JOIN Countries ON ((Locations.country = Countries.country)
			OR (Regions.country = Countries.country))`)
}

func LocationTables() Tables {
	return From(`Locations
		LEFT JOIN Regions USING (region)
		INNER JOIN Countries ON ((Locations.country = Countries.country)
			OR (Regions.country = Countries.country))`)
}

func MeetingTypeTable() Tables {
	return From("MeetingTypes")
}

func TagTable() Tables {
	return From("Tags")
}

// ByDate matches events starting between minDays and maxDays from today.
func ByDate(minDays, maxDays int) Filter {
	return Where("startDate BETWEEN ADDDATE(CURDATE(), ?) AND ADDDATE(CURDATE(), ?)", minDays, maxDays)
}

func Recent() Filter {
	return ByDate(-180, 0)
}

func Upcoming() Filter {
	return ByDate(0, 365)
}

// UpcomingDeadlines matches events with any deadline at most two weeks past.
func UpcomingDeadlines() Filter {
	return Where(`(DATEDIFF(deadline, CURDATE()) >= -14)
		OR (DATEDIFF(extendedDeadline, CURDATE()) >= -14)
		OR (DATEDIFF(posterDeadline, CURDATE()) >= -14)`)
}

// Tags matches conferences carrying any of the given tag ids. No ids means
// no restriction.
func Tags(ids []int) Filter {
	if len(ids) == 0 {
		return NoFilter()
	}
	matches := make([]string, 0, len(ids))
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		matches = append(matches, "FIND_IN_SET(?, tags) > 0")
		args = append(args, id)
	}
	return Where(fmt.Sprintf("(%s)", strings.Join(matches, " OR ")), args...)
}

// MostRecentInstance keeps only the latest instance of each conference.
func MostRecentInstance() Filter {
	return Where(`startDate = (SELECT MAX(latest.startDate)
		FROM ConferenceInstances AS latest
		WHERE latest.conference = ConferenceInstances.conference)`)
}

func StartDate(reverse bool) Order {
	if reverse {
		return OrderBy("startDate DESC")
	}
	return OrderBy("startDate")
}

// Deadline orders by the deadline that still matters: the poster deadline
// once the paper deadlines are more than two weeks gone, otherwise the
// extended deadline if there is one.
func Deadline() Order {
	return OrderBy(`CASE
		WHEN (DATEDIFF(deadline, CURDATE()) < -14)
			AND (extendedDeadline IS NULL
				OR (DATEDIFF(extendedDeadline, CURDATE()) < -14))
			THEN posterDeadline
		WHEN extendedDeadline IS NULL THEN deadline
		ELSE extendedDeadline
		END`)
}

func ByLocation() Order {
	return OrderBy("location")
}
