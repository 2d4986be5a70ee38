package registry

// DefaultTrustedDomains are sender domains of carriers, hotel groups and
// booking platforms whose mail is treated as first-party.
var DefaultTrustedDomains = []string{
	// Airlines.
	"koreanair.com", "flyasiana.com", "jinair.com", "twayair.com",
	"airbusan.com", "airseoul.com", "eastarjet.com", "airpremia.com",
	"jal.com", "ana.co.jp", "singaporeair.com", "cathaypacific.com",
	"united.com", "delta.com", "aa.com", "aircanada.com",
	"lufthansa.com", "airfrance.fr", "britishairways.com", "emirates.com",
	"qatarairways.com", "turkishairlines.com", "klm.com", "finnair.com",

	// Hotel groups.
	"marriott.com", "hilton.com", "hyatt.com", "ihg.com", "accor.com",
	"shillahotels.com", "lottehotel.com",

	// Booking platforms and agencies.
	"booking.com", "expedia.com", "agoda.com", "trip.com", "hotels.com",
	"airbnb.com", "kayak.com", "skyscanner.net", "interpark.com",
	"yanolja.com", "hanatour.com", "modetour.com",

	// Car rental.
	"hertz.com", "avis.com", "sixt.com", "enterprise.com", "europcar.com",
}

// Matchers shared by several definitions.
const (
	routeMatcher        = `\b({IATA})\s*(?:→|->|-|–|to|TO)\s*({IATA})\b`
	bracketedAirport    = `\(({IATA})\)`
	checkInDateMatcher  = `(?i:check-?in|체크인)(?i:\s+date)?\s*[:：]?\s*([^\n\r]{6,30})`
	checkOutDateMatcher = `(?i:check-?out|체크아웃)(?i:\s+date)?\s*[:：]?\s*([^\n\r]{6,30})`
	ticketDateMatcher   = `\b(\d{1,2}{MON3}\d{2,4})\b`
)

// BuiltinDefinitions returns the built-in pattern definitions in priority
// order. Carrier-specific definitions come before generic ones so that they
// win ties.
func BuiltinDefinitions() []PatternDefinition {
	return []PatternDefinition{
		{
			Name:            "koreanAirline",
			Category:        CategoryAirline,
			SenderMatchers:  []string{`(?i)koreanair`, `(?i)korean\s*air`, `대한항공`},
			SubjectMatchers: []string{`\bKE\d{3,4}\b`, `(?i)korean\s+air`, `대한항공`},
			BodyMatchers:    []string{`\bKE\d{3,4}\b`, `(?i)korean\s+air`, `대한항공`, `(?i)skypass`},
			Weight:          1.0,
			Extractors: FieldMatchers{
				FlightNumbers:     []string{`\b(KE\d{3,4})\b`},
				BookingReferences: []string{`(?i:예약번호|reservation\s+number|booking\s+reference)\s*[:：#]?\s*({PNR})\b`},
				AirportCodes:      []string{routeMatcher, bracketedAirport},
				Dates:             []string{ticketDateMatcher},
			},
		},
		{
			Name:            "asianaAirline",
			Category:        CategoryAirline,
			SenderMatchers:  []string{`(?i)flyasiana`, `(?i)asiana`, `아시아나`},
			SubjectMatchers: []string{`\bOZ\d{3,4}\b`, `(?i)asiana`, `아시아나`},
			BodyMatchers:    []string{`\bOZ\d{3,4}\b`, `(?i)asiana\s+airlines`, `아시아나`, `(?i)asiana\s+club`},
			Weight:          1.0,
			Extractors: FieldMatchers{
				FlightNumbers:     []string{`\b(OZ\d{3,4})\b`},
				BookingReferences: []string{`(?i:예약번호|reservation\s+number)\s*[:：#]?\s*({PNR})\b`},
				AirportCodes:      []string{routeMatcher, bracketedAirport},
				Dates:             []string{ticketDateMatcher},
			},
		},
		{
			Name:            "koreanLowCostCarrier",
			Category:        CategoryAirline,
			SenderMatchers:  []string{`(?i)jinair|twayair|airbusan|airseoul|eastarjet|airpremia`},
			SubjectMatchers: []string{`\b(?:LJ|TW|BX|RS|ZE|YP)\d{3,4}\b`, `(?i)jin\s*air|t'?way|air\s*busan|air\s*seoul|eastar|air\s*premia`},
			BodyMatchers:    []string{`\b(?:LJ|TW|BX|RS|ZE|YP)\d{3,4}\b`, `진에어|티웨이|에어부산|에어서울|이스타|에어프레미아`},
			Weight:          1.0,
			Extractors: FieldMatchers{
				FlightNumbers: []string{`\b((?:LJ|TW|BX|RS|ZE|YP)\d{3,4})\b`},
				AirportCodes:  []string{routeMatcher, bracketedAirport},
			},
		},
		{
			Name:            "genericAirline",
			Category:        CategoryAirline,
			SenderMatchers:  []string{`(?i)airline|airways|\bair\b|flight|aviation`},
			SubjectMatchers: []string{`(?i)e-?ticket|itinerary|flight|boarding\s+pass|check-?in|항공권|탑승권`},
			BodyMatchers:    []string{`(?i)\b(?:departure|arrival|boarding|gate|seat|terminal|e-?ticket)\b`, `출발|도착|탑승`},
			Weight:          1.0,
			Extractors: FieldMatchers{
				FlightNumbers:     []string{`\b({FLIGHT})\b`},
				BookingReferences: []string{`(?i:PNR|record\s+locator|booking\s+reference|airline\s+reference)\s*[:：#]?\s*({PNR})\b`},
				AirportCodes:      []string{routeMatcher, bracketedAirport},
				Dates:             []string{ticketDateMatcher},
			},
		},
		{
			Name:            "hotelChain",
			Category:        CategoryHotel,
			SenderMatchers:  []string{`(?i)marriott|hilton|hyatt|ihg|accor|shilla|lotte\s*hotel|hotel`},
			SubjectMatchers: []string{`(?i)reservation|your\s+stay|check-?in|hotel`, `숙박|호텔|예약\s*확인`},
			BodyMatchers:    []string{`(?i)\b(?:check-?in|check-?out|room|guest|nights?)\b`, `체크인|체크아웃|객실`},
			Weight:          0.9,
			Extractors: FieldMatchers{
				BookingReferences: []string{`(?i:confirmation|itinerary)(?i:\s+(?:number|no\.?))?\s*[:：#]*\s*({PNR})\b`},
				Dates:             []string{checkInDateMatcher, checkOutDateMatcher},
			},
		},
		{
			Name:            "bookingPlatform",
			Category:        CategoryBookingPlatform,
			SenderMatchers:  []string{`(?i)booking\.com|expedia|agoda|trip\.com|hotels\.com|airbnb|kayak|skyscanner|priceline|yanolja|interpark`},
			SubjectMatchers: []string{`(?i)booking\s+(?:is\s+)?confirm|reservation\s+confirm|your\s+trip|itinerary`, `예약\s*(?:확인|완료)`},
			BodyMatchers:    []string{`(?i)booking\.com|expedia|agoda|trip\.com|airbnb|hotels\.com`},
			Weight:          0.85,
			Extractors: FieldMatchers{
				BookingReferences: []string{`(?i:booking\s+(?:number|id|reference)|itinerary\s+(?:number|no\.?)|confirmation\s+code)\s*[:：#]*\s*({PNR})\b`},
				AirportCodes:      []string{routeMatcher},
				Dates:             []string{checkInDateMatcher, checkOutDateMatcher},
			},
		},
		{
			Name:            "travelAgency",
			Category:        CategoryTravelAgency,
			SenderMatchers:  []string{`(?i)hanatour|modetour|travel|tour`, `여행`},
			SubjectMatchers: []string{`(?i)itinerary|travel|tour|package`, `여행|일정`},
			BodyMatchers:    []string{`(?i)\b(?:itinerary|tour|package|travel\s+agent)\b`, `여행사|일정표`},
			Weight:          0.8,
			Extractors: FieldMatchers{
				FlightNumbers: []string{`\b({FLIGHT})\b`},
				AirportCodes:  []string{routeMatcher, bracketedAirport},
			},
		},
		{
			Name:            "carRental",
			Category:        CategoryRental,
			SenderMatchers:  []string{`(?i)hertz|avis|sixt|enterprise|europcar|budget|rentacar|socar`},
			SubjectMatchers: []string{`(?i)rental|rent-?a-?car|car\s+reservation|pick-?up`, `렌터카|렌트카`},
			BodyMatchers:    []string{`(?i)\b(?:pick-?up|drop-?off|return\s+location|vehicle|rental)\b`, `대여|반납`},
			Weight:          0.7,
			Extractors: FieldMatchers{
				BookingReferences: []string{`(?i:confirmation|reservation)(?i:\s+(?:number|no\.?))?\s*[:：#]*\s*({PNR})\b`},
				Dates: []string{
					`(?i:pick-?up|대여)(?i:\s+date)?\s*[:：]?\s*([^\n\r]{6,30})`,
					`(?i:drop-?off|return|반납)(?i:\s+date)?\s*[:：]?\s*([^\n\r]{6,30})`,
				},
			},
		},
	}
}
