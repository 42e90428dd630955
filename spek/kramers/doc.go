// Package kramers is the built-in analytical spectrum engine.
//
// The bremsstrahlung continuum follows the Kramers-Whiddington thin
// target model (fluence proportional to Z(kVp-k)/k with the classical
// cross-section constant), with tungsten or molybdenum K lines added
// above the K edge, anode self-filtration for the heel effect, and
// exponential beam filtration from the compact coefficient tables in
// internal/xdata. Kerma derives from air mass energy-absorption
// coefficients; half-value layers and effective energy from bisection
// searches on the filtered kerma.
//
// The model is tutorial-grade on purpose. It exists so the calculators,
// sweeps and front ends in this repository run self-contained and so
// the qualitative beam-physics properties (filtration hardens the beam,
// more filtration means less dose, HVLs add) hold. Substitute a real
// engine behind spek.Engine for clinical numbers.
package kramers
