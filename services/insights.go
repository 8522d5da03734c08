package services

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"weeromzet/models"
)

const fallbackInsight = "Je data laat interessante patronen zien. Meer data zal meer specifieke inzichten opleveren."

// RevenueInsights evaluates the fixed battery of narrative rules against the
// aggregates of r. At least one sentence is always returned.
func RevenueInsights(r *models.AnalysisResult) []string {
	var insights []string
	locs, days, months := r.Locations, r.DayOfWeek, r.Monthly
	globalAvg := r.Summary.AverageRevenue

	if len(locs) >= 2 {
		best, worst := locs[0], locs[len(locs)-1]
		if best.AverageRevenue > 0 && worst.AverageRevenue > 0 {
			diff := (best.AverageRevenue - worst.AverageRevenue) / worst.AverageRevenue * 100
			if diff > 10 {
				insights = append(insights, fmt.Sprintf("%s presteert %.0f%% beter dan %s (€%.0f vs €%.0f gemiddeld).",
					best.Name, roundHalfUp(diff), worst.Name, roundHalfUp(best.AverageRevenue), roundHalfUp(worst.AverageRevenue)))
			}
		}

		for _, l := range locs {
			if l.TransactionCount >= 3 && l.AverageRevenue > globalAvg*1.1 {
				insights = append(insights, fmt.Sprintf("%s is een constante topper met %d verkoopdagen en een bovengemiddelde omzet.",
					l.Name, l.TransactionCount))
				break
			}
		}
	}

	if len(days) >= 2 {
		best, worst := days[0], days[len(days)-1]
		if best.AverageRevenue > worst.AverageRevenue*1.15 {
			insights = append(insights, fmt.Sprintf("%s is je beste dag (€%.0f gemiddeld), terwijl %s het minst oplevert (€%.0f gemiddeld).",
				best.DayName, roundHalfUp(best.AverageRevenue), worst.DayName, roundHalfUp(worst.AverageRevenue)))
		}

		var weekendSum, weekdaySum float64
		var weekendN, weekdayN int
		for _, d := range days {
			if d.Day == 0 || d.Day == 6 {
				weekendSum += d.AverageRevenue
				weekendN++
			} else {
				weekdaySum += d.AverageRevenue
				weekdayN++
			}
		}
		if weekendN > 0 && weekdayN > 0 {
			weekendAvg := weekendSum / float64(weekendN)
			weekdayAvg := weekdaySum / float64(weekdayN)
			switch {
			case weekendAvg > weekdayAvg*1.1:
				insights = append(insights, fmt.Sprintf("Weekenden zijn %.0f%% winstgevender dan doordeweekse dagen.",
					roundHalfUp((weekendAvg-weekdayAvg)/weekdayAvg*100)))
			case weekdayAvg > weekendAvg*1.1:
				insights = append(insights, fmt.Sprintf("Doordeweekse dagen zijn %.0f%% winstgevender dan weekenden.",
					roundHalfUp((weekdayAvg-weekendAvg)/weekendAvg*100)))
			}
		}
	}

	if len(months) >= 2 {
		byAvg := append([]models.MonthStats(nil), months...)
		sort.SliceStable(byAvg, func(i, j int) bool { return byAvg[i].AverageRevenue > byAvg[j].AverageRevenue })
		best, worst := byAvg[0], byAvg[len(byAvg)-1]
		if best.AverageRevenue > worst.AverageRevenue*1.2 {
			insights = append(insights, fmt.Sprintf("%s was je beste maand (€%.0f totaal), terwijl %s het laagst scoorde.",
				best.MonthName, roundHalfUp(best.TotalRevenue), worst.MonthName))
		}
	}

	switch {
	case globalAvg > 400:
		insights = append(insights, fmt.Sprintf("Je gemiddelde transactiewaarde van €%.0f ligt bovengemiddeld voor foodtrucks.",
			roundHalfUp(globalAvg)))
	case globalAvg < 250:
		insights = append(insights, fmt.Sprintf("Er is ruimte voor verbetering: je gemiddelde transactiewaarde is €%.0f. Overweeg je menu of prijzen te optimaliseren.",
			roundHalfUp(globalAvg)))
	}

	if len(insights) == 0 {
		return []string{fallbackInsight}
	}
	return insights
}

// WeatherInsights renders the narrative sentences for a correlation result.
func WeatherInsights(c *models.WeatherCorrelation) []string {
	var insights []string

	switch c.Temperature.Impact {
	case ImpactPositive:
		insights = append(insights,
			fmt.Sprintf("Warmer weer heeft een positieve impact op je omzet (correlatie: %s)", formatNumber(c.Temperature.Correlation)),
			fmt.Sprintf("Optimale temperatuur voor verkoop: %s°C - %s°C",
				formatNumber(c.Temperature.OptimalRange[0]), formatNumber(c.Temperature.OptimalRange[1])))
	case ImpactNegative:
		insights = append(insights,
			fmt.Sprintf("Warmer weer heeft een negatieve impact op je omzet (correlatie: %s)", formatNumber(c.Temperature.Correlation)))
	}

	if math.Abs(c.Precipitation.AverageImpact) > 25 {
		insights = append(insights, c.Precipitation.Impact)
	}

	for i, cond := range c.Conditions {
		if i == 3 {
			break
		}
		if math.Abs(cond.RevenueImpact) > 25 {
			insights = append(insights, cond.Description)
		}
	}

	if len(c.Conditions) > 0 {
		spread := math.Abs(c.Conditions[0].RevenueImpact - c.Conditions[len(c.Conditions)-1].RevenueImpact)
		if spread > 50 {
			insights = append(insights, fmt.Sprintf("Weersomstandigheden hebben significante impact: verschil van €%s tussen beste en slechtste weer",
				formatNumber(spread)))
		}
	}

	if len(insights) == 0 {
		return []string{"Geen significante weersinvloeden gevonden in je data."}
	}
	return insights
}

// formatNumber prints whole numbers without decimals and everything else
// with up to two.
func formatNumber(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("%.0f", f)
	}
	s := fmt.Sprintf("%.2f", f)
	return strings.TrimRight(strings.TrimRight(s, "0"), ".")
}

// Print writes a coloured console summary of r to w.
func Print(w io.Writer, r *models.AnalysisResult) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 OMZET ANALYSE\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	s := r.Summary
	fmt.Fprintf(w, "\033[1;33m  Overzicht\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Totale omzet      : \033[1;32m€%.2f\033[0m\n", round2(s.TotalRevenue))
	fmt.Fprintf(w, "  Verkoopdagen      : \033[1m%d\033[0m\n", s.TotalTransactions)
	fmt.Fprintf(w, "  Gemiddeld per dag : \033[1;32m€%.2f\033[0m\n", round2(s.AverageRevenue))
	fmt.Fprintf(w, "  Periode           : %s t/m %s\n", s.DateRange.Start, s.DateRange.End)
	fmt.Fprintf(w, "  Beste locatie     : %s\n", s.BestLocation)
	fmt.Fprintf(w, "  Slechtste locatie : %s\n", s.WorstLocation)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Locaties (gemiddelde omzet)\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for i, l := range r.Locations {
		fmt.Fprintf(w, "  \033[1m%d.\033[0m %-30s \033[1;32m€%8.2f\033[0m (%dx)\n",
			i+1, truncate(l.Name, 28), round2(l.AverageRevenue), l.TransactionCount)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Weekdagen\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, d := range r.DayOfWeek {
		fmt.Fprintf(w, "  %-12s €%8.2f (%dx)\n", d.DayName, round2(d.AverageRevenue), d.TransactionCount)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Inzichten\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, in := range r.Insights {
		fmt.Fprintf(w, "  • %s\n", in)
	}

	if r.Weather != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "\033[1;33m  Weer\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		for _, in := range r.Weather.Insights {
			fmt.Fprintf(w, "  • %s\n", in)
		}
		if la := r.Weather.LocationAnalysis; la != nil {
			for _, l := range la.Locations {
				fmt.Fprintf(w, "  %-30s gevoeligheid %3d (%s)\n", truncate(l.LocationName, 28), l.SensitivityScore, l.SensitivityLevel)
			}
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
