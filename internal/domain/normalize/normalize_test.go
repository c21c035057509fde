package normalize_test

import (
	"errors"
	"testing"

	"github.com/okian/heatguard/internal/domain/model"
	"github.com/okian/heatguard/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

const tolerance = 1e-9

func requiredOnly(temp, humidity, pulse float64) model.Observation {
	return model.Observation{
		Temperature: model.Float(temp),
		Humidity:    model.Float(humidity),
		Pulse:       model.Float(pulse),
	}
}

func TestNormalize_Defaults(t *testing.T) {
	Convey("Given only the required readings and no profile", t, func() {
		obs := requiredOnly(38.2, 65, 92)

		Convey("When normalizing", func() {
			fv, imputed, err := normalize.Trace(obs, nil)

			Convey("Then every default is applied", func() {
				So(err, ShouldBeNil)
				So(fv.Age, ShouldEqual, 30.0)
				So(fv.Sex, ShouldEqual, 0.0)
				So(fv.Weight, ShouldEqual, 70.0)
				So(fv.BMI, ShouldEqual, 25.0)
				So(fv.DehydrationLevel, ShouldEqual, 0.5)
				So(fv.HeatIndex, ShouldEqual, 38.2)
				So(fv.Temperature, ShouldEqual, 38.2)
				So(fv.Humidity, ShouldAlmostEqual, 0.65, tolerance)
				So(fv.Pulse, ShouldEqual, 92.0)
				So(fv.PatientTemperature, ShouldAlmostEqual, 39.52, tolerance)
				So(fv.Sweating, ShouldEqual, 0.7)
				So(fv.HotDrySkin, ShouldEqual, 0.0)
			})

			Convey("And every optional feature is reported as imputed", func() {
				So(imputed, ShouldResemble, []string{
					normalize.ImputedAge,
					normalize.ImputedSex,
					normalize.ImputedWeight,
					normalize.ImputedBMI,
					normalize.ImputedDehydration,
					normalize.ImputedHeatIndex,
					normalize.ImputedPatientTemperature,
					normalize.ImputedSweating,
					normalize.ImputedHotDrySkin,
				})
			})
		})
	})
}

func TestNormalize_SuppliedValuesWin(t *testing.T) {
	Convey("Given a complete observation and a male profile", t, func() {
		obs := model.Observation{
			Temperature:        model.Float(41),
			Humidity:           model.Float(0.3),
			Pulse:              model.Float(130),
			DehydrationLevel:   model.Float(0.9),
			HeatIndex:          model.Float(45),
			PatientTemperature: model.Float(40.1),
			Sweating:           model.Float(0.2),
			HotDrySkin:         model.Float(0.6),
			Age:                model.Float(67),
		}
		profile := &model.PatientProfile{Gender: model.GenderMale, Weight: model.Float(88), BMI: model.Float(27.5)}

		fv, imputed, err := normalize.Trace(obs, profile)

		Convey("Then nothing is imputed", func() {
			So(err, ShouldBeNil)
			So(imputed, ShouldBeEmpty)
			So(fv, ShouldResemble, model.FeatureVector{
				Age:                67,
				Sex:                1,
				Weight:             88,
				BMI:                27.5,
				DehydrationLevel:   0.9,
				HeatIndex:          45,
				Temperature:        41,
				Humidity:           0.3,
				Pulse:              130,
				PatientTemperature: 40.1,
				Sweating:           0.2,
				HotDrySkin:         0.6,
			})
		})
	})

	Convey("Given a female profile without weight or BMI", t, func() {
		profile := &model.PatientProfile{Gender: model.GenderFemale}
		fv, imputed, err := normalize.Trace(requiredOnly(30, 50, 80), profile)

		Convey("Then sex is 0 and weight/BMI fall back to defaults", func() {
			So(err, ShouldBeNil)
			So(fv.Sex, ShouldEqual, 0.0)
			So(fv.Weight, ShouldEqual, normalize.DefaultWeight)
			So(fv.BMI, ShouldEqual, normalize.DefaultBMI)
			So(imputed, ShouldNotContain, normalize.ImputedSex)
			So(imputed, ShouldContain, normalize.ImputedWeight)
		})
	})
}

func TestNormalize_MissingRequired(t *testing.T) {
	Convey("Given observations missing a required field", t, func() {
		cases := []struct {
			field string
			obs   model.Observation
		}{
			{normalize.FieldTemperature, model.Observation{Humidity: model.Float(50), Pulse: model.Float(80)}},
			{normalize.FieldHumidity, model.Observation{Temperature: model.Float(30), Pulse: model.Float(80)}},
			{normalize.FieldPulse, model.Observation{Temperature: model.Float(30), Humidity: model.Float(50)}},
		}

		for _, tc := range cases {
			_, err := normalize.Normalize(tc.obs, nil)

			var missing *normalize.MissingRequiredFieldError
			So(errors.As(err, &missing), ShouldBeTrue)
			So(missing.Field, ShouldEqual, tc.field)
			So(err.Error(), ShouldContainSubstring, tc.field)
		}

		Convey("Then temperature is reported first when everything is missing", func() {
			_, err := normalize.Normalize(model.Observation{}, nil)
			var missing *normalize.MissingRequiredFieldError
			So(errors.As(err, &missing), ShouldBeTrue)
			So(missing.Field, ShouldEqual, "temperature")
		})
	})
}

func TestHumidity(t *testing.T) {
	Convey("Given raw humidity readings", t, func() {
		So(normalize.Humidity(65), ShouldAlmostEqual, 0.65, tolerance)
		So(normalize.Humidity(0.65), ShouldEqual, 0.65)
		So(normalize.Humidity(150), ShouldEqual, 1.0)
		So(normalize.Humidity(-5), ShouldEqual, 0.0)
		So(normalize.Humidity(1.0), ShouldEqual, 1.0)
		So(normalize.Humidity(0), ShouldEqual, 0.0)
		So(normalize.Humidity(100), ShouldEqual, 1.0)
	})
}

func TestCoreTemperature(t *testing.T) {
	Convey("Given ambient temperatures", t, func() {
		Convey("Then the rise is clamped to [0.5, 2.0]", func() {
			So(normalize.CoreTemperature(20), ShouldAlmostEqual, 20.5, tolerance)
			So(normalize.CoreTemperature(25), ShouldAlmostEqual, 25.5, tolerance)
			So(normalize.CoreTemperature(32), ShouldAlmostEqual, 32.7, tolerance)
			So(normalize.CoreTemperature(45), ShouldAlmostEqual, 47.0, tolerance)
			So(normalize.CoreTemperature(60), ShouldAlmostEqual, 62.0, tolerance)
		})
	})
}

func TestSweatingAndSkin(t *testing.T) {
	Convey("Given dehydration and ambient temperature", t, func() {
		Convey("Then sweating follows the dehydration-first ladder", func() {
			So(normalize.Sweating(0.85, 40), ShouldEqual, 0.0)
			So(normalize.Sweating(0.8, 40), ShouldEqual, 0.3)
			So(normalize.Sweating(0.6, 20), ShouldEqual, 0.3)
			So(normalize.Sweating(0.5, 36), ShouldEqual, 1.0)
			So(normalize.Sweating(0.5, 35), ShouldEqual, 0.7)
		})

		Convey("Then hot/dry skin needs both dehydration and heat", func() {
			So(normalize.HotDrySkin(0.75, 33), ShouldEqual, 1.0)
			So(normalize.HotDrySkin(0.75, 32), ShouldEqual, 0.0)
			So(normalize.HotDrySkin(0.6, 36), ShouldEqual, 0.5)
			So(normalize.HotDrySkin(0.6, 35), ShouldEqual, 0.0)
			So(normalize.HotDrySkin(0.5, 40), ShouldEqual, 0.0)
		})
	})

	Convey("Given an observation with supplied dehydration", t, func() {
		obs := requiredOnly(36, 40, 100)
		obs.DehydrationLevel = model.Float(0.75)
		fv, err := normalize.Normalize(obs, nil)

		Convey("Then derived fields use the supplied dehydration", func() {
			So(err, ShouldBeNil)
			So(fv.Sweating, ShouldEqual, 0.3)
			So(fv.HotDrySkin, ShouldEqual, 1.0)
		})
	})
}
